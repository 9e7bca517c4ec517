package domain

import (
	"testing"
	"time"
)

func TestUser_Profile(t *testing.T) {
	u := &User{
		ID:       "5f1b2c3d4e5f6a7b8c9d0e1f",
		FullName: "Ann Lee",
		Username: "ann",
		Password: "pw1",
		Created:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	p := u.Profile()
	if p.Created != "2024-03-01 10:00:00" || p.Updated != UnsetTimestamp {
		t.Fatalf("unexpected timestamps: %+v", p)
	}
	if p.ID != u.ID || p.Username != "ann" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestUser_Profile_RawTimestamps(t *testing.T) {
	u := &User{RawCreated: "01/03/2024 10:00", RawUpdated: "yesterday"}

	p := u.Profile()
	if p.Created != "01/03/2024 10:00" || p.Updated != "yesterday" {
		t.Fatalf("raw timestamps must be shown as stored: %+v", p)
	}

	u.Updated = time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	if got := u.Profile().Updated; got != "2024-03-02 09:30:00" {
		t.Fatalf("a parsed timestamp wins over the raw one, got %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, in := range []string{"", UnsetTimestamp} {
		got, err := ParseTimestamp(in)
		if err != nil || !got.IsZero() {
			t.Fatalf("%q: expected zero time, got %v %v", in, got, err)
		}
	}
	if _, err := ParseTimestamp("01/03/2024"); err == nil {
		t.Fatalf("expected parse error")
	}
}
