package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
)

type form struct {
	Name  string `validate:"required"`
	Email string `validate:"required"`
}

func TestValidationError_ListsEveryField(t *testing.T) {
	err := validator.New().Struct(form{})
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	got := ValidationError(verrs)
	want := "field Name is required, field Email is required"
	if got.Status != StatusError || got.Error != want {
		t.Fatalf("got %+v, want error %q", got, want)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusTeapot, GeneralError(errors.New("boom"))); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}
	if body := rec.Body.String(); body != "{\"status\":\"error\",\"error\":\"boom\"}\n" {
		t.Errorf("body %q", body)
	}
}

func TestEventStream(t *testing.T) {
	rec := httptest.NewRecorder()
	flusher, err := StartEventStream(rec)
	if err != nil {
		t.Fatalf("StartEventStream: %v", err)
	}
	if err := WriteEvent(rec, flusher, "snapshot", []int{1, 2}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type %q", ct)
	}
	if body := rec.Body.String(); body != "event: snapshot\ndata: [1,2]\n\n" {
		t.Errorf("body %q", body)
	}
	if !rec.Flushed {
		t.Error("event was not flushed")
	}
}

// noFlush hides httptest.ResponseRecorder's Flush method.
type noFlush struct{ http.ResponseWriter }

func TestStartEventStream_Unsupported(t *testing.T) {
	_, err := StartEventStream(noFlush{httptest.NewRecorder()})
	if !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("got %v, want ErrStreamingUnsupported", err)
	}
}
