package mqtt

import "testing"

func pushN(rb *ringBuffer, from, to int) {
	for i := from; i < to; i++ {
		rb.push(bufferedMsg{topic: Topic("b"), payload: []byte{byte(i)}})
	}
}

func payloads(msgs []bufferedMsg) []byte {
	out := make([]byte, len(msgs))
	for i, m := range msgs {
		out[i] = m.payload[0]
	}
	return out
}

func TestRingBufferDrain(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushed   int
		want     []byte
	}{
		{"empty", 4, 0, nil},
		{"partial", 4, 3, []byte{0, 1, 2}},
		{"full", 4, 4, []byte{0, 1, 2, 3}},
		{"overflow keeps newest", 4, 7, []byte{3, 4, 5, 6}},
		{"zero capacity holds one", 0, 3, []byte{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newRingBuffer(tt.capacity)
			pushN(rb, 0, tt.pushed)

			got := rb.drainAll()
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %d items", len(got))
				}
				return
			}
			if string(payloads(got)) != string(tt.want) {
				t.Errorf("got %v, want %v", payloads(got), tt.want)
			}
			if rb.len() != 0 {
				t.Errorf("len after drain = %d", rb.len())
			}
		})
	}
}

func TestRingBufferReportsFirstDropOnly(t *testing.T) {
	rb := newRingBuffer(2)

	var first []bool
	for i := 0; i < 5; i++ {
		first = append(first, rb.push(bufferedMsg{payload: []byte{byte(i)}}))
	}

	want := []bool{false, false, true, false, false}
	for i := range want {
		if first[i] != want[i] {
			t.Errorf("push %d: firstDrop=%v, want %v", i, first[i], want[i])
		}
	}

	rb.drainAll()
	pushN(rb, 0, 2)
	if !rb.push(bufferedMsg{payload: []byte{9}}) {
		t.Error("drop counter should reset after drain")
	}
}

func TestRingBufferReuseAfterDrain(t *testing.T) {
	rb := newRingBuffer(5)
	pushN(rb, 0, 3)
	rb.drainAll()

	pushN(rb, 10, 14)
	got := payloads(rb.drainAll())
	if string(got) != string([]byte{10, 11, 12, 13}) {
		t.Errorf("got %v", got)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"system":{}}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	m := got[0]
	if m.topic != TopicSystem || string(m.payload) != `{"system":{}}` || m.qos != 1 || !m.retained {
		t.Errorf("unexpected message: %+v", m)
	}
}
