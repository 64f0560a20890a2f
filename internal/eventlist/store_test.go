package eventlist

import (
	"errors"
	"testing"

	"github.com/Breadstickhemmo/42Brat/internal/client"
)

func TestStoreLifecycle(t *testing.T) {
	s := New()
	if s.Loading() || s.Len() != 0 || s.Err() != nil {
		t.Fatal("new store not empty")
	}

	s.Begin()
	if !s.Loading() {
		t.Error("Begin() did not set loading")
	}

	s.Replace([]client.Event{{ID: 1, Title: "a"}, {ID: 7, Title: "b"}})
	if s.Loading() || s.Len() != 2 {
		t.Errorf("after Replace: loading=%v len=%d", s.Loading(), s.Len())
	}
	if e, ok := s.Find(7); !ok || e.Title != "b" {
		t.Errorf("Find(7) = %+v, %v", e, ok)
	}
	if s.Contains(3) {
		t.Error("Contains(3) = true")
	}

	boom := errors.New("boom")
	s.Begin()
	s.Fail(boom)
	if s.Len() != 0 || !errors.Is(s.Err(), boom) || s.Loading() {
		t.Errorf("after Fail: len=%d err=%v loading=%v", s.Len(), s.Err(), s.Loading())
	}

	s.Begin()
	if s.Err() != nil {
		t.Error("Begin() kept the previous error")
	}
	s.Replace([]client.Event{{ID: 2}})
	s.Clear()
	if s.Len() != 0 || s.Loading() || s.Err() != nil {
		t.Error("Clear() left state behind")
	}
}
