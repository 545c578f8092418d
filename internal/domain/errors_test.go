package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsBenign(t *testing.T) {
	wrapped := fmt.Errorf("follow user 42: %w", ErrAlreadyInState)
	if !IsBenign(wrapped) {
		t.Fatalf("expected wrapped ErrAlreadyInState to be benign")
	}
	if IsBenign(ErrAccountRestricted) {
		t.Fatalf("restriction must not be benign")
	}
	if IsBenign(errors.New("boom")) {
		t.Fatalf("unclassified error must not be benign")
	}
}

func TestIsEscalation(t *testing.T) {
	for _, err := range []error{ErrAccountRestricted, ErrRateLimited} {
		if !IsEscalation(fmt.Errorf("like media: %w", err)) {
			t.Fatalf("expected %v to escalate", err)
		}
	}
	if IsEscalation(ErrAlreadyInState) {
		t.Fatalf("benign conflict must not escalate")
	}
	if IsEscalation(ErrTargetNotFound) {
		t.Fatalf("missing target must not escalate")
	}
}

func TestActionClassification(t *testing.T) {
	if !ActionFollow.TargetsUser() || !ActionUnfollow.TargetsUser() {
		t.Fatalf("follow/unfollow must target users")
	}
	if ActionLike.TargetsUser() {
		t.Fatalf("like must target content")
	}
	if !ActionLike.Toggle() || !ActionSave.Toggle() {
		t.Fatalf("like/save are toggles")
	}
	if ActionComment.Toggle() {
		t.Fatalf("comment is not a toggle")
	}
}
