package handlers

import "testing"

func TestValidateSignup(t *testing.T) {
	if fields := validateSignup("swamp@example.com", "password123", "swampy"); len(fields) > 0 {
		t.Fatalf("expected valid signup, got %v", fields)
	}

	cases := []struct {
		name     string
		email    string
		password string
		username string
		field    string
	}{
		{"missing email", "", "password123", "swampy", "email"},
		{"bad email", "not-an-email", "password123", "swampy", "email"},
		{"missing password", "a@b.com", "", "swampy", "password"},
		{"short password", "a@b.com", "short", "swampy", "password"},
		{"long password", "a@b.com", string(make([]byte, 65)), "swampy", "password"},
		{"missing username", "a@b.com", "password123", "", "username"},
		{"short username", "a@b.com", "password123", "x", "username"},
		{"long username", "a@b.com", "password123", "abcdefghijklmnopqrstu", "username"},
	}
	for _, tc := range cases {
		fields := validateSignup(tc.email, tc.password, tc.username)
		if _, ok := fields[tc.field]; !ok {
			t.Fatalf("%s: expected field %q in %v", tc.name, tc.field, fields)
		}
	}
}

func TestValidateLogin(t *testing.T) {
	if fields := validateLogin("swamp@example.com", "pw"); len(fields) > 0 {
		t.Fatalf("expected valid login, got %v", fields)
	}
	if fields := validateLogin("", ""); len(fields) != 2 {
		t.Fatalf("expected email and password errors, got %v", fields)
	}
}

func TestStudyRequestValidate(t *testing.T) {
	valid := studyRequest{
		Title:          "Go study",
		Description:    "weekly",
		StudyType:      "STUDY",
		StartDate:      "2026-04-01",
		EndDate:        "2026-05-01",
		MaxMemberCount: 5,
		Tags:           []string{"go"},
	}
	if fields := valid.validate(); len(fields) > 0 {
		t.Fatalf("expected valid request, got %v", fields)
	}

	cases := []struct {
		name   string
		mutate func(r *studyRequest)
		field  string
	}{
		{"missing title", func(r *studyRequest) { r.Title = "  " }, "title"},
		{"missing description", func(r *studyRequest) { r.Description = "" }, "description"},
		{"bad type", func(r *studyRequest) { r.StudyType = "HACKATHON" }, "study_type"},
		{"zero capacity", func(r *studyRequest) { r.MaxMemberCount = 0 }, "max_member_count"},
		{"bad start date", func(r *studyRequest) { r.StartDate = "01-04-2026" }, "start_date"},
		{"bad end date", func(r *studyRequest) { r.EndDate = "soon" }, "end_date"},
		{"end before start", func(r *studyRequest) { r.EndDate = "2026-03-01" }, "end_date"},
	}
	for _, tc := range cases {
		r := valid
		tc.mutate(&r)
		fields := r.validate()
		if _, ok := fields[tc.field]; !ok {
			t.Fatalf("%s: expected field %q in %v", tc.name, tc.field, fields)
		}
	}

	tooLong := make([]rune, 101)
	for i := range tooLong {
		tooLong[i] = 'a'
	}
	r := valid
	r.Title = string(tooLong)
	if _, ok := r.validate()["title"]; !ok {
		t.Fatalf("expected title length error")
	}
}

func TestStudyRequestDates(t *testing.T) {
	r := studyRequest{StartDate: "2026-04-01"}
	start, end := r.dates()
	if start.Format(dateLayout) != "2026-04-01" {
		t.Fatalf("unexpected start date %v", start)
	}
	if end != nil {
		t.Fatalf("expected nil end date, got %v", end)
	}

	r.EndDate = "2026-05-01"
	_, end = r.dates()
	if end == nil || end.Format(dateLayout) != "2026-05-01" {
		t.Fatalf("unexpected end date %v", end)
	}
}

func TestValidateContent(t *testing.T) {
	if fields := validateContent("great study"); len(fields) > 0 {
		t.Fatalf("expected valid content, got %v", fields)
	}
	if _, ok := validateContent("   ")["content"]; !ok {
		t.Fatalf("expected content error for blank input")
	}
}
