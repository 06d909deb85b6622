package resource

import (
	"testing"
	"time"
)

func TestViewCache_GetReturnsSameView(t *testing.T) {
	c := NewViewCache(0)
	defer c.Stop()

	def := Certificates()
	a := c.Get("s1", def)
	b := c.Get("s1", def)
	if a != b {
		t.Error("same session and resource should share a view")
	}
	if c.Get("s2", def) == a {
		t.Error("different sessions must not share a view")
	}
	if c.Get("s1", Testimonials()) == a {
		t.Error("different resources must not share a view")
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestView_SuccessInvalidatesMirror(t *testing.T) {
	c := NewViewCache(0)
	defer c.Stop()

	v := c.Get("s1", Certificates())
	v.Mirror.Commit(v.Mirror.Begin(), makeRecords(2))

	v.Modal.Open()
	v.Modal.BeginSubmit()
	v.Modal.Succeed()

	if _, ok := v.Mirror.Snapshot(); ok {
		t.Error("successful submission should invalidate the mirror")
	}
}

func TestViewCache_DropSessionDetaches(t *testing.T) {
	c := NewViewCache(0)
	defer c.Stop()

	v := c.Get("s1", Certificates())
	ticket := v.Mirror.Begin()

	c.DropSession("s1")

	if v.Mirror.Commit(ticket, makeRecords(1)) {
		t.Error("late response after logout must be ignored")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if c.Get("s1", Certificates()) == v {
		t.Error("a new view should be created after drop")
	}
}

func TestViewCache_CleanupEvictsIdleViews(t *testing.T) {
	c := NewViewCache(0)
	defer c.Stop()
	c.maxIdle = time.Minute

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	idle := c.Get("s1", Certificates())
	now = now.Add(2 * time.Minute)
	c.Get("s2", Certificates())

	c.cleanup()

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if idle.Mirror.Commit(idle.Mirror.Begin(), makeRecords(1)) {
		t.Error("evicted view should be detached")
	}
}
