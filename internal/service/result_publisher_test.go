package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-practice/internal/model"
)

type fakeWriter struct {
	got *model.PracticeResultRecord
	err error
}

func (w *fakeWriter) Insert(_ context.Context, rec *model.PracticeResultRecord) error {
	w.got = rec
	return w.err
}

func TestDirectResultPublisher(t *testing.T) {
	rec := model.PracticeResultRecord{ID: uuid.New(), OwnerID: "student-1", SessionID: "exam_1_aaaaaaa", Score: 50}

	w := &fakeWriter{}
	if err := NewDirectResultPublisher(w).Publish(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if w.got == nil || w.got.SessionID != rec.SessionID {
		t.Errorf("writer got %+v", w.got)
	}

	boom := errors.New("boom")
	err := NewDirectResultPublisher(&fakeWriter{err: boom}).Publish(context.Background(), rec)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}
