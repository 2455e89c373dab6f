package pubsub

import "testing"

func TestPublishFanOut(t *testing.T) {
	b := NewBroker()
	s1 := NewSubscriber()
	s2 := NewSubscriber()
	b.Subscribe("events", s1)
	b.Subscribe("events", s2)

	b.Publish("events", []byte("hello"))

	for _, s := range []*Subscriber{s1, s2} {
		m, ok := s.TryReceive()
		if !ok {
			t.Fatalf("expected a message")
		}
		if string(m.Body) != "hello" || m.Channel != "events" {
			t.Fatalf("got %+v", m)
		}
	}
}

func TestPublishOrdering(t *testing.T) {
	b := NewBroker()
	s := NewSubscriber()
	b.Subscribe("events", s)

	for _, body := range []string{"a", "b", "c"} {
		b.Publish("events", []byte(body))
	}
	for _, want := range []string{"a", "b", "c"} {
		m, ok := s.TryReceive()
		if !ok || string(m.Body) != want {
			t.Fatalf("got %+v, want %q", m, want)
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroker()
	s := NewSubscriber()
	b.Subscribe("events", s)
	b.Unsubscribe("events", s)
	b.Publish("events", []byte("hello"))
	if _, ok := s.TryReceive(); ok {
		t.Fatalf("unsubscribed subscriber should not receive")
	}
}

func TestReceiveBlocksUntilPublish(t *testing.T) {
	b := NewBroker()
	s := NewSubscriber()
	b.Subscribe("events", s)

	done := make(chan Message, 1)
	go func() {
		m, ok := s.Receive()
		if ok {
			done <- m
		}
	}()
	b.Publish("events", []byte("late"))
	m := <-done
	if string(m.Body) != "late" {
		t.Fatalf("got %q", m.Body)
	}
}

func TestCloseUnblocksReceive(t *testing.T) {
	s := NewSubscriber()
	done := make(chan bool, 1)
	go func() {
		_, ok := s.Receive()
		done <- ok
	}()
	s.Close()
	if ok := <-done; ok {
		t.Fatalf("Receive after Close should report false")
	}
}

func TestSubscriberCount(t *testing.T) {
	b := NewBroker()
	if n := b.SubscriberCount("events"); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	s := NewSubscriber()
	b.Subscribe("events", s)
	if n := b.SubscriberCount("events"); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}
