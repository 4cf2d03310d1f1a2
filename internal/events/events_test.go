package events

import "testing"

func TestSubscribeNotify(t *testing.T) {
	var src Source[string]

	var got []string
	token := src.Subscribe(func(v string) {
		got = append(got, v)
	})

	src.Notify("one")
	src.Notify("two")

	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Expected [one two], got %v", got)
	}

	src.Unsubscribe(token)
	src.Notify("three")

	if len(got) != 2 {
		t.Errorf("Expected no delivery after unsubscribe, got %v", got)
	}
}

func TestNotifyWithoutSubscribers(t *testing.T) {
	var src Source[int]
	// Must not panic on a zero-value source.
	src.Notify(42)
	src.Unsubscribe(7)
}
