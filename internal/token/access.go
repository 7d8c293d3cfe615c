package token

import (
	"errors"
	"time"

	"github.com/iliyamo/movie-rental/internal/model"
)

const (
	// DefaultVideoTTL bounds a paid playback session.
	DefaultVideoTTL = 15 * time.Minute
	// DefaultTrailerTTL is longer since trailers need no rental.
	DefaultTrailerTTL = 2 * time.Hour
)

// AccessPayload is the capability redeemed by the video server.  Exactly one
// of UserID and AnonymousID is set.
type AccessPayload struct {
	ResourceID  string `json:"resourceId"`
	MovieID     string `json:"movieId"`
	UserID      string `json:"userId,omitempty"`
	AnonymousID string `json:"anonymousId,omitempty"`
	Path        string `json:"path"`
	Exp         int64  `json:"exp"`
}

// Viewer rebuilds the identity carried by the payload.
func (p AccessPayload) Viewer() model.Identity {
	if p.UserID != "" {
		return model.UserIdentity(p.UserID)
	}
	return model.AnonymousIdentity(p.AnonymousID)
}

// VideoGrant describes a playback token request.  Callers must have
// resolved entitlement before asking for one.
type VideoGrant struct {
	MovieID   string
	Viewer    model.Identity
	VideoPath string
}

// TrailerGrant describes a trailer token request.
type TrailerGrant struct {
	TrailerID   string
	MovieID     string
	Viewer      model.Identity
	TrailerPath string
}

// AccessIssuer mints video and trailer capability tokens.  Each kind has its
// own secret so rotating one leaves outstanding tokens of the other intact.
type AccessIssuer struct {
	video      *Codec
	trailer    *Codec
	videoTTL   time.Duration
	trailerTTL time.Duration
}

// AccessConfig configures an AccessIssuer.  Zero TTLs take the defaults.
type AccessConfig struct {
	VideoSecret   string
	TrailerSecret string
	VideoTTL      time.Duration
	TrailerTTL    time.Duration
}

// NewAccessIssuer builds an issuer.  The two secrets must differ.
func NewAccessIssuer(cfg AccessConfig) (*AccessIssuer, error) {
	if cfg.VideoSecret != "" && cfg.VideoSecret == cfg.TrailerSecret {
		return nil, errors.New("token: video and trailer secrets must differ")
	}
	v, err := NewCodec(cfg.VideoSecret)
	if err != nil {
		return nil, err
	}
	t, err := NewCodec(cfg.TrailerSecret)
	if err != nil {
		return nil, err
	}
	if cfg.VideoTTL <= 0 {
		cfg.VideoTTL = DefaultVideoTTL
	}
	if cfg.TrailerTTL <= 0 {
		cfg.TrailerTTL = DefaultTrailerTTL
	}
	return &AccessIssuer{video: v, trailer: t, videoTTL: cfg.VideoTTL, trailerTTL: cfg.TrailerTTL}, nil
}

// IssueVideoToken returns a token for one movie's master playlist.
func (a *AccessIssuer) IssueVideoToken(g VideoGrant) (string, time.Time, error) {
	return issue(a.video, a.videoTTL, g.MovieID, g.MovieID, g.VideoPath, g.Viewer)
}

// IssueTrailerToken returns a token for one trailer.  No entitlement is
// implied.
func (a *AccessIssuer) IssueTrailerToken(g TrailerGrant) (string, time.Time, error) {
	return issue(a.trailer, a.trailerTTL, g.TrailerID, g.MovieID, g.TrailerPath, g.Viewer)
}

// VerifyVideoToken checks a token minted by IssueVideoToken.
func (a *AccessIssuer) VerifyVideoToken(tok string) (AccessPayload, error) {
	var p AccessPayload
	err := a.video.Verify(tok, &p)
	return p, err
}

// VerifyTrailerToken checks a token minted by IssueTrailerToken.
func (a *AccessIssuer) VerifyTrailerToken(tok string) (AccessPayload, error) {
	var p AccessPayload
	err := a.trailer.Verify(tok, &p)
	return p, err
}

func issue(c *Codec, ttl time.Duration, resourceID, movieID, path string, viewer model.Identity) (string, time.Time, error) {
	if err := viewer.Require(); err != nil {
		return "", time.Time{}, err
	}
	exp := c.now().Add(ttl)
	p := AccessPayload{
		ResourceID: resourceID,
		MovieID:    movieID,
		Path:       path,
		Exp:        exp.Unix(),
	}
	if id, ok := viewer.UserID(); ok {
		p.UserID = id
	} else {
		p.AnonymousID, _ = viewer.AnonymousID()
	}
	tok, err := c.Sign(p)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, exp, nil
}
