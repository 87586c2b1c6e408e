package handlers

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codingswamp/codingswamp-backend/internal/domain/study"
)

// Request validation lives here as explicit per-request functions returning
// a field -> message map; handlers turn a non-empty map into an
// invalid_request error before any service call.

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const dateLayout = "2006-01-02"

func validateEmail(fields map[string]string, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		fields["email"] = "required"
	case !emailPattern.MatchString(email):
		fields["email"] = "must be a valid email address"
	}
}

func validateSignup(email, password, username string) map[string]string {
	fields := map[string]string{}
	validateEmail(fields, email)
	if password == "" {
		fields["password"] = "required"
	} else if len(password) < 8 || len(password) > 64 {
		fields["password"] = "must be between 8 and 64 characters"
	}
	validateUsername(fields, username)
	return fields
}

func validateLogin(email, password string) map[string]string {
	fields := map[string]string{}
	validateEmail(fields, email)
	if password == "" {
		fields["password"] = "required"
	}
	return fields
}

func validateUsername(fields map[string]string, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		fields["username"] = "required"
	} else if n := utf8.RuneCountInString(username); n < 2 || n > 20 {
		fields["username"] = "must be between 2 and 20 characters"
	}
}

type studyRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StudyType      string   `json:"study_type"`
	Thumbnail      string   `json:"thumbnail"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	MaxMemberCount int      `json:"max_member_count"`
	Tags           []string `json:"tags"`
}

func (r studyRequest) validate() map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(r.Title) == "" {
		fields["title"] = "required"
	} else if utf8.RuneCountInString(r.Title) > 100 {
		fields["title"] = "must be at most 100 characters"
	}
	if strings.TrimSpace(r.Description) == "" {
		fields["description"] = "required"
	}
	if r.StudyType != string(study.TypeStudy) && r.StudyType != string(study.TypeMogakko) {
		fields["study_type"] = "must be STUDY or MOGAKKO"
	}
	if r.MaxMemberCount < 1 {
		fields["max_member_count"] = "must be at least 1"
	}

	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		fields["start_date"] = "must be a date formatted YYYY-MM-DD"
	}
	if r.EndDate != "" {
		end, eErr := time.Parse(dateLayout, r.EndDate)
		if eErr != nil {
			fields["end_date"] = "must be a date formatted YYYY-MM-DD"
		} else if err == nil && end.Before(start) {
			fields["end_date"] = "must not be before start_date"
		}
	}
	return fields
}

func (r studyRequest) dates() (time.Time, *time.Time) {
	start, _ := time.Parse(dateLayout, r.StartDate)
	if r.EndDate == "" {
		return start, nil
	}
	end, _ := time.Parse(dateLayout, r.EndDate)
	return start, &end
}

func validateContent(content string) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(content) == "" {
		fields["content"] = "required"
	}
	return fields
}
