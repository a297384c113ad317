package chat_test

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/killallgit/sherpa/pkg/chat"
	"github.com/killallgit/sherpa/pkg/protocol"
	"github.com/killallgit/sherpa/pkg/session"
	"github.com/killallgit/sherpa/pkg/testutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var fixedTime = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// memoryStore records persisted messages
type memoryStore struct {
	messages []chat.Message
	err      error
}

func (m *memoryStore) Append(msg chat.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

var _ = Describe("Session", func() {
	var (
		ch   *testutil.FakeChannel
		sess *chat.Session
		ids  session.StaticProvider
	)

	newSession := func(opts ...chat.Option) *chat.Session {
		opts = append([]chat.Option{chat.WithClock(fixedClock)}, opts...)
		return chat.NewSession(ch, ids, opts...)
	}

	connect := func() {
		Expect(sess.Connect(context.Background())).To(Succeed())
	}

	BeforeEach(func() {
		ch = testutil.NewFakeChannel()
		ids = session.StaticProvider{ID: session.DemoSessionID}
		sess = newSession()
	})

	Describe("connection lifecycle", func() {
		It("should start connecting and open on handshake", func() {
			Expect(sess.State()).To(Equal(chat.StateConnecting))
			Expect(sess.IsConnected()).To(BeFalse())

			connect()

			Expect(sess.State()).To(Equal(chat.StateOpen))
			Expect(sess.IsConnected()).To(BeTrue())
		})

		It("should close when the channel fails to open", func() {
			ch.OpenErr = errors.New("connection refused")

			err := sess.Connect(context.Background())

			Expect(err).To(MatchError(ContainSubstring("connection refused")))
			Expect(sess.State()).To(Equal(chat.StateClosed))
			Expect(sess.Err()).To(MatchError("connection refused"))
			Expect(sess.Transcript()).To(BeEmpty())
		})

		It("should close on a channel drop and clear the pending indicator", func() {
			connect()
			ch.Deliver(`{"type":"status","content":"thinking"}`)
			Expect(sess.IsPending()).To(BeTrue())

			ch.Drop(errors.New("reset by peer"))

			view := sess.Snapshot()
			Expect(view.State).To(Equal(chat.StateClosed))
			Expect(view.Pending).To(BeFalse())
			Expect(view.Messages).To(BeEmpty())
		})

		It("should never leave the closed state", func() {
			connect()
			ch.Drop(nil)

			Expect(sess.Connect(context.Background())).To(MatchError(chat.ErrSessionClosed))
			Expect(sess.State()).To(Equal(chat.StateClosed))
		})

		It("should discard frames that arrive after teardown", func() {
			connect()
			Expect(sess.Close()).To(Succeed())

			ch.Deliver(`{"type":"response","content":"too late"}`)
			ch.Deliver(`{"type":"status","content":"thinking"}`)

			Expect(sess.Transcript()).To(BeEmpty())
			Expect(sess.IsPending()).To(BeFalse())
			Expect(ch.IsClosed()).To(BeTrue())
		})

		It("should close the updates channel once", func() {
			connect()
			Expect(sess.Close()).To(Succeed())
			Expect(sess.Close()).To(Succeed())

			Eventually(sess.Updates()).Should(BeClosed())
		})
	})

	Describe("Send", func() {
		BeforeEach(connect)

		It("should echo locally and write exactly one frame", func() {
			msg, ok := sess.Send("fix this bug")

			Expect(ok).To(BeTrue())
			Expect(msg.Sender).To(Equal(chat.SenderUser))
			Expect(sess.Transcript()).To(HaveLen(1))
			Expect(sess.IsPending()).To(BeTrue())

			sent := ch.Sent()
			Expect(sent).To(HaveLen(1))
			Expect(sent[0]).To(MatchJSON(`{"message":"fix this bug","session_id":"demo-session-1"}`))
		})

		DescribeTable("should ignore blank input",
			func(text string) {
				_, ok := sess.Send(text)

				Expect(ok).To(BeFalse())
				Expect(ch.SentCount()).To(BeZero())
				Expect(sess.Transcript()).To(BeEmpty())
				Expect(sess.IsPending()).To(BeFalse())
			},
			Entry("empty", ""),
			Entry("spaces", "   "),
			Entry("tabs and newlines", "\t\n "),
		)

		It("should send and echo text as typed", func() {
			snippet := "    return x\n}\n"
			sess.Send(snippet)

			out, err := protocol.DecodeOutbound(ch.Sent()[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Message).To(Equal(snippet))
			Expect(sess.Transcript()[0].Text).To(Equal(snippet))
		})

		It("should clear pending when the write fails", func() {
			ch.SendErr = errors.New("broken pipe")

			_, ok := sess.Send("hi")

			Expect(ok).To(BeTrue())
			Expect(sess.Transcript()).To(HaveLen(1))
			Expect(sess.IsPending()).To(BeFalse())
		})
	})

	Describe("Send while disconnected", func() {
		It("should echo locally without writing or awaiting a reply", func() {
			ch.OpenErr = errors.New("refused")
			_ = sess.Connect(context.Background())

			_, ok := sess.Send("anyone there?")

			Expect(ok).To(BeTrue())
			Expect(ch.SentCount()).To(BeZero())
			Expect(sess.Transcript()).To(HaveLen(1))
			Expect(sess.IsPending()).To(BeFalse())
		})

		It("should not write before the channel opens", func() {
			sess.Send("early")

			Expect(ch.SentCount()).To(BeZero())
			Expect(sess.IsPending()).To(BeFalse())
		})

		It("should ignore sends after Close", func() {
			connect()
			Expect(sess.Close()).To(Succeed())

			_, ok := sess.Send("bye")

			Expect(ok).To(BeFalse())
			Expect(ch.SentCount()).To(BeZero())
		})
	})

	Describe("inbound frames", func() {
		BeforeEach(connect)

		It("should track thinking then clear it on the response", func() {
			ch.Deliver(`{"type":"status","content":"thinking"}`)
			Expect(sess.IsPending()).To(BeTrue())
			Expect(sess.Transcript()).To(BeEmpty())

			ch.Deliver(`{"type":"response","content":"Done"}`)
			Expect(sess.IsPending()).To(BeFalse())

			transcript := sess.Transcript()
			Expect(transcript).To(HaveLen(1))
			Expect(transcript[0].Kind).To(Equal(chat.KindPlain))
			Expect(transcript[0].Text).To(Equal("Done"))
			Expect(transcript[0].Sender).To(Equal(chat.SenderAgent))
		})

		It("should keep the review payload on the message", func() {
			ch.Deliver(`{"type":"response","content":{"summary":"Looks good","quality_score":8}}`)

			msg := sess.Transcript()[0]
			Expect(msg.Kind).To(Equal(chat.KindReview))
			Expect(msg.Text).To(Equal("Review Summary:\nLooks good\n\nQuality Score: 8/10"))
			Expect(string(msg.Payload)).To(MatchJSON(`{"summary":"Looks good","quality_score":8}`))
		})

		DescribeTable("should leave the transcript untouched",
			func(raw string) {
				Expect(func() { ch.Deliver(raw) }).NotTo(Panic())
				Expect(sess.Transcript()).To(BeEmpty())
			},
			Entry("ping", `{"type":"ping"}`),
			Entry("backend error type", `{"type":"error","content":"boom"}`),
			Entry("garbage", `not json at all`),
			Entry("array", `[{"type":"response","content":"x"}]`),
			Entry("missing content", `{"type":"response"}`),
			Entry("idle status", `{"type":"status","content":"idle"}`),
		)

		It("should append one entry per response frame in arrival order", func() {
			frames := []string{
				`{"type":"status","content":"thinking"}`,
				`{"type":"response","content":"first"}`,
				`{"type":"ping"}`,
				`{"type":"response","content":{"error":"second"}}`,
				`garbage`,
				`{"type":"response","content":{"reply":"third"}}`,
				`{"type":"status","content":"thinking"}`,
				`{"type":"response","content":{"summary":"fourth","quality_score":5}}`,
				`{"type":"response","content":{"explanation":"fifth","key_concepts":[],"analogy":"a"}}`,
				`{"type":"response","content":{"unknown":"sixth"}}`,
			}
			for _, f := range frames {
				ch.Deliver(f)
			}

			transcript := sess.Transcript()
			Expect(transcript).To(HaveLen(6))

			kinds := make([]chat.Kind, len(transcript))
			for i, m := range transcript {
				kinds[i] = m.Kind
				if i > 0 {
					Expect(m.ID).To(BeNumerically(">", transcript[i-1].ID))
				}
			}
			Expect(kinds).To(Equal([]chat.Kind{
				chat.KindPlain,
				chat.KindError,
				chat.KindReply,
				chat.KindReview,
				chat.KindExplanation,
				chat.KindRawFallback,
			}))
			Expect(transcript[1].Text).To(Equal("⚠️ Error: second"))
			Expect(sess.IsPending()).To(BeFalse())
		})

		It("should interleave local sends and replies by insertion order", func() {
			sess.Send("question")
			ch.Deliver(`{"type":"status","content":"thinking"}`)
			ch.Deliver(`{"type":"response","content":"answer"}`)
			sess.Send("follow up")

			want := []chat.Message{
				{ID: 1, Sender: chat.SenderUser, Kind: chat.KindPlain, Text: "question", Timestamp: fixedTime},
				{ID: 2, Sender: chat.SenderAgent, Kind: chat.KindPlain, Text: "answer", Timestamp: fixedTime},
				{ID: 3, Sender: chat.SenderUser, Kind: chat.KindPlain, Text: "follow up", Timestamp: fixedTime},
			}
			Expect(cmp.Diff(want, sess.Transcript())).To(BeEmpty())

			after := sess.After(1)
			Expect(after).To(HaveLen(2))
			Expect(after[0].Text).To(Equal("answer"))
		})

		It("should signal updates", func() {
			Eventually(sess.Updates()).Should(Receive())

			ch.Deliver(`{"type":"response","content":"hi"}`)
			Eventually(sess.Updates()).Should(Receive())
		})

		It("should report one consistent view", func() {
			ch.Deliver(`{"type":"status","content":"thinking"}`)

			view := sess.Snapshot()
			Expect(view.IsConnected()).To(BeTrue())
			Expect(view.Pending).To(BeTrue())
			Expect(view.Messages).To(BeEmpty())
		})
	})

	Describe("options", func() {
		It("should greet on an empty transcript", func() {
			sess = newSession(chat.WithGreeting("Namaste!"))

			transcript := sess.Transcript()
			Expect(transcript).To(HaveLen(1))
			Expect(transcript[0].Sender).To(Equal(chat.SenderAgent))
			Expect(transcript[0].Kind).To(Equal(chat.KindPlain))
			Expect(transcript[0].Text).To(Equal("Namaste!"))
		})

		It("should skip a blank greeting", func() {
			sess = newSession(chat.WithGreeting("  "))
			Expect(sess.Transcript()).To(BeEmpty())
		})

		It("should seed history ahead of the greeting and keep ids increasing", func() {
			sess = newSession(
				chat.WithHistory([]chat.Message{
					{ID: 9, Sender: chat.SenderUser, Kind: chat.KindPlain, Text: "old question"},
					{ID: 3, Sender: chat.SenderAgent, Kind: chat.KindReply, Text: "old answer"},
				}),
				chat.WithGreeting("Namaste!"),
			)
			connect()
			ch.Deliver(`{"type":"response","content":"new"}`)

			transcript := sess.Transcript()
			Expect(transcript).To(HaveLen(3))
			Expect(transcript[0].Text).To(Equal("old question"))
			Expect([]uint64{transcript[0].ID, transcript[1].ID, transcript[2].ID}).To(Equal([]uint64{1, 2, 3}))
		})

		It("should persist appended messages but not the greeting", func() {
			store := &memoryStore{}
			sess = newSession(chat.WithStore(store), chat.WithGreeting("hi"))
			connect()

			sess.Send("question")
			ch.Deliver(`{"type":"response","content":{"reply":"answer"}}`)
			ch.Deliver(`{"type":"status","content":"thinking"}`)

			Expect(store.messages).To(HaveLen(2))
			Expect(store.messages[0].ID).To(Equal(uint64(2)))
			Expect(store.messages[1].Kind).To(Equal(chat.KindReply))
		})

		It("should keep going when the store fails", func() {
			store := &memoryStore{err: errors.New("disk full")}
			sess = newSession(chat.WithStore(store))
			connect()

			sess.Send("question")

			Expect(sess.Transcript()).To(HaveLen(1))
			Expect(ch.SentCount()).To(Equal(1))
		})

		It("should persist to a history file", func() {
			history, err := chat.NewHistory(filepath.Join(GinkgoT().TempDir(), "history.json"))
			Expect(err).NotTo(HaveOccurred())

			sess = newSession(chat.WithStore(history))
			connect()
			sess.Send("question")
			ch.Deliver(`{"type":"response","content":"answer"}`)

			reloaded, err := chat.NewHistory(history.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.GetMessages()).To(HaveLen(2))
		})
	})
})
