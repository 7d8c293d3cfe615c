package token

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/movie-rental/internal/model"
)

func newTestIssuer(t *testing.T, now time.Time) *AccessIssuer {
	t.Helper()
	a, err := NewAccessIssuer(AccessConfig{
		VideoSecret:   "video-secret-0123456789abcdef",
		TrailerSecret: "trailer-secret-0123456789abcdef",
	})
	if err != nil {
		t.Fatalf("NewAccessIssuer: %v", err)
	}
	a.video.now = fixedClock(now)
	a.trailer.now = fixedClock(now)
	return a
}

func TestIssueVideoToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a := newTestIssuer(t, now)
	tok, exp, err := a.IssueVideoToken(VideoGrant{
		MovieID:   "m-1",
		Viewer:    model.UserIdentity("u-1"),
		VideoPath: "hls/big-buck/master.m3u8",
	})
	if err != nil {
		t.Fatalf("IssueVideoToken: %v", err)
	}
	if !exp.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("exp = %v", exp)
	}
	p, err := a.VerifyVideoToken(tok)
	if err != nil {
		t.Fatalf("VerifyVideoToken: %v", err)
	}
	want := AccessPayload{ResourceID: "m-1", MovieID: "m-1", UserID: "u-1", Path: "hls/big-buck/master.m3u8", Exp: exp.Unix()}
	if p != want {
		t.Errorf("payload = %+v, want %+v", p, want)
	}
	if p.Viewer() != model.UserIdentity("u-1") {
		t.Errorf("Viewer() = %+v", p.Viewer())
	}
}

func TestIssueTrailerToken_Anonymous(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a := newTestIssuer(t, now)
	tok, exp, err := a.IssueTrailerToken(TrailerGrant{
		TrailerID:   "t-9",
		MovieID:     "m-1",
		Viewer:      model.AnonymousIdentity("anon-1"),
		TrailerPath: "trailers/big-buck/master.m3u8",
	})
	if err != nil {
		t.Fatalf("IssueTrailerToken: %v", err)
	}
	if !exp.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("exp = %v", exp)
	}
	p, err := a.VerifyTrailerToken(tok)
	if err != nil {
		t.Fatalf("VerifyTrailerToken: %v", err)
	}
	if p.ResourceID != "t-9" || p.AnonymousID != "anon-1" || p.UserID != "" {
		t.Errorf("payload = %+v", p)
	}
}

func TestAccessTokens_SecretsAreNotShared(t *testing.T) {
	a := newTestIssuer(t, time.Unix(1_700_000_000, 0))
	viewer := model.UserIdentity("u-1")
	video, _, _ := a.IssueVideoToken(VideoGrant{MovieID: "m", Viewer: viewer, VideoPath: "p"})
	trailer, _, _ := a.IssueTrailerToken(TrailerGrant{TrailerID: "t", MovieID: "m", Viewer: viewer, TrailerPath: "p"})

	if _, err := a.VerifyTrailerToken(video); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("video token accepted as trailer: %v", err)
	}
	if _, err := a.VerifyVideoToken(trailer); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("trailer token accepted as video: %v", err)
	}
}

func TestVideoToken_ExpiresAfterTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	a := newTestIssuer(t, now)
	tok, _, _ := a.IssueVideoToken(VideoGrant{MovieID: "m", Viewer: model.UserIdentity("u"), VideoPath: "p"})
	a.video.now = fixedClock(now.Add(16 * time.Minute))
	if _, err := a.VerifyVideoToken(tok); !errors.Is(err, ErrExpired) {
		t.Errorf("VerifyVideoToken = %v, want ErrExpired", err)
	}
}

func TestIssue_RequiresViewer(t *testing.T) {
	a := newTestIssuer(t, time.Unix(0, 0))
	if _, _, err := a.IssueVideoToken(VideoGrant{MovieID: "m", VideoPath: "p"}); !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("IssueVideoToken = %v, want ErrUnauthenticated", err)
	}
}

func TestNewAccessIssuer_SameSecret(t *testing.T) {
	if _, err := NewAccessIssuer(AccessConfig{VideoSecret: "same", TrailerSecret: "same"}); err == nil {
		t.Error("expected error when secrets match")
	}
}
