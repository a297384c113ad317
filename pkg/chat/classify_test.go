package chat_test

import (
	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/protocol"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func classifyRaw(raw string) chat.Classification {
	frame, err := protocol.DecodeFrame([]byte(raw))
	Expect(err).NotTo(HaveOccurred())
	return chat.Classify(frame)
}

var _ = Describe("Classify", func() {
	It("should raise the pending indicator for the thinking status", func() {
		cl := classifyRaw(`{"type":"status","content":"thinking"}`)

		Expect(cl.Effect).To(Equal(chat.EffectThinking))
		Expect(cl.Text).To(BeEmpty())
	})

	It("should drop other status values", func() {
		Expect(classifyRaw(`{"type":"status","content":"done"}`).Effect).To(Equal(chat.EffectDrop))
	})

	DescribeTable("response content",
		func(raw string, kind chat.Kind, text string) {
			cl := classifyRaw(raw)

			Expect(cl.Effect).To(Equal(chat.EffectAppend))
			Expect(cl.Kind).To(Equal(kind))
			Expect(cl.Text).To(Equal(text))
		},
		Entry("plain string",
			`{"type":"response","content":"Done"}`,
			chat.KindPlain, "Done"),
		Entry("empty string",
			`{"type":"response","content":""}`,
			chat.KindPlain, ""),
		Entry("error",
			`{"type":"response","content":{"error":"Agent timed out"}}`,
			chat.KindError, "⚠️ Error: Agent timed out"),
		Entry("reply",
			`{"type":"response","content":{"reply":"Use a context manager."}}`,
			chat.KindReply, "Use a context manager."),
		Entry("review",
			`{"type":"response","content":{"summary":"Looks good","quality_score":8}}`,
			chat.KindReview, "Review Summary:\nLooks good\n\nQuality Score: 8/10"),
		Entry("review with fractional score",
			`{"type":"response","content":{"summary":"Fine","quality_score":7.5,"findings":[]}}`,
			chat.KindReview, "Review Summary:\nFine\n\nQuality Score: 7.5/10"),
		Entry("explanation",
			`{"type":"response","content":{"explanation":"useEffect runs after render.","key_concepts":[{"term":"Hook","definition":"A function that lets you hook into React state"},{"term":"Side Effect","definition":"Operations like fetching data"}],"analogy":"Like a light switch."}}`,
			chat.KindExplanation, "useEffect runs after render.\n\nKey Concepts:\n- Hook: A function that lets you hook into React state\n- Side Effect: Operations like fetching data\n\nAnalogy:\n> Like a light switch."),
		Entry("explanation without concepts",
			`{"type":"response","content":{"explanation":"E","key_concepts":[],"analogy":"N/A"}}`,
			chat.KindExplanation, "E\n\nKey Concepts:\n\n\nAnalogy:\n> N/A"),
		Entry("unknown object",
			`{"type":"response","content":{"status":"queued","position":3}}`,
			chat.KindRawFallback, "```json\n{\n  \"status\": \"queued\",\n  \"position\": 3\n}\n```"),
		Entry("number",
			`{"type":"response","content":42}`,
			chat.KindRawFallback, "```json\n42\n```"),
	)

	It("should carry the review payload and nothing else", func() {
		review := classifyRaw(`{"type":"response","content":{"summary":"s","quality_score":6,"security_risk":"High"}}`)
		Expect(string(review.Payload)).To(Equal(`{"summary":"s","quality_score":6,"security_risk":"High"}`))

		reply := classifyRaw(`{"type":"response","content":{"reply":"r"}}`)
		Expect(reply.Payload).To(BeNil())
	})

	It("should be a pure function of the frame", func() {
		frame, err := protocol.DecodeFrame([]byte(`{"type":"response","content":{"explanation":"E","key_concepts":[{"term":"t","definition":"d"}],"analogy":"A"}}`))
		Expect(err).NotTo(HaveOccurred())

		first := chat.Classify(frame)
		for i := 0; i < 5; i++ {
			Expect(chat.Classify(frame)).To(Equal(first))
		}
	})

	It("should drop frames of unknown type", func() {
		Expect(chat.Classify(protocol.Frame{Type: "ping"}).Effect).To(Equal(chat.EffectDrop))
		Expect(chat.Classify(protocol.Frame{Type: protocol.TypeResponse}).Effect).To(Equal(chat.EffectDrop))
	})
})
