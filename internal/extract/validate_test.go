package extract

import (
	"strings"
	"testing"
)

func validRecord() Record {
	a, _ := ParseAmount("1,250.50")
	return Record{
		Entity:      "Berkeley Rocketry",
		RequestType: "Contingency",
		Decision:    Approved,
		Amount:      a,
		Date:        "03/03/2025",
	}
}

func TestValidateRecord_ValidPasses(t *testing.T) {
	r := validRecord()
	if !ValidateRecord(&r) {
		t.Error("expected valid record to pass validation")
	}
}

func TestValidateRecord_NilRecord(t *testing.T) {
	if ValidateRecord(nil) {
		t.Error("expected nil record to fail validation")
	}
}

func TestValidateRecord_EmptyName(t *testing.T) {
	r := validRecord()
	r.Entity = "   "
	if ValidateRecord(&r) {
		t.Error("expected blank entity name to fail")
	}
}

func TestValidateRecord_NameTooLong(t *testing.T) {
	r := validRecord()
	r.Entity = strings.Repeat("a", 301)
	if ValidateRecord(&r) {
		t.Error("expected entity name > 300 chars to fail")
	}
}

func TestValidateRecord_MissingRequestType(t *testing.T) {
	r := validRecord()
	r.RequestType = ""
	if ValidateRecord(&r) {
		t.Error("expected empty request type to fail")
	}
}

func TestValidateRecord_ApprovedNeedsAmount(t *testing.T) {
	r := validRecord()
	r.Amount = NullAmount
	if ValidateRecord(&r) {
		t.Error("expected approved record without amount to fail")
	}
}

func TestValidateRecord_TabledNeedsZero(t *testing.T) {
	r := validRecord()
	r.Decision = Tabled
	if ValidateRecord(&r) {
		t.Error("expected tabled record with non-zero amount to fail")
	}
	r.Amount = ZeroAmount
	if !ValidateRecord(&r) {
		t.Error("expected tabled record with zero amount to pass")
	}
}

func TestValidateRecord_NullCategoriesRejectAmount(t *testing.T) {
	for _, d := range []Decision{ApprovedNoAmount, NoRecord, Unparseable} {
		r := validRecord()
		r.Decision = d
		if ValidateRecord(&r) {
			t.Errorf("expected %s with amount to fail", d)
		}
		r.Amount = NullAmount
		if !ValidateRecord(&r) {
			t.Errorf("expected %s without amount to pass", d)
		}
	}
}

func TestValidateRecord_UnknownDecision(t *testing.T) {
	r := validRecord()
	r.Decision = Decision(42)
	if ValidateRecord(&r) {
		t.Error("expected unknown decision to fail")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"2025-03-03 Agenda":            "2025-03-03-agenda",
		"  FR_clean_03/10/2025 ":       "fr-clean-03-10-2025",
		"Club & Co.":                   "club-co",
		strings.Repeat("x", 60):        strings.Repeat("x", 50),
		"Student Advocate's Office!!!": "student-advocate-s-office",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
