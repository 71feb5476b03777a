package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/mroshb/astro_bot/internal/catalog"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/mroshb/astro_bot/pkg/logger"
	"github.com/mroshb/astro_bot/pkg/utils"
)

// Isolation decides which key a message maps to.
type Isolation int

const (
	IsolateChannel Isolation = iota
	IsolateUser
)

// ShortGuessLength is the longest wrong guess that gets no feedback.
const ShortGuessLength = 2

// Origin is where an inbound message came from.
type Origin struct {
	ChatID int64
	UserID int64
}

// ImagePrompt asks the presentation layer to show an image.
type ImagePrompt struct {
	URL    string
	Title  string
	Footer string
}

// Reply is what an operation wants sent back to the chat. The zero Reply
// means stay silent.
type Reply struct {
	Text  string
	Image *ImagePrompt
}

func (r Reply) IsEmpty() bool {
	return r.Text == "" && r.Image == nil
}

// Expiry is a session removed by the TTL sweep.
type Expiry struct {
	ChatID int64
	Reply  Reply
}

type QuizOptions struct {
	Modes            []Mode
	Isolation        Isolation
	ChannelExclusive bool
	Threshold        float64
	SessionTTL       time.Duration
	Rand             RandSource
	Now              func() time.Time
	Shards           int
}

// QuizService runs the quiz state machine: NoSession -> Active -> NoSession.
// Every operation mutates state under the store lock for its key and returns
// the Reply to send; sending happens after the lock is released.
type QuizService struct {
	catalog   *catalog.Catalog
	modes     []Mode
	modeByKey map[string]Mode
	queues    *QueueManager
	store     *SessionStore
	matcher   Matcher

	isolation        Isolation
	channelExclusive bool
	ttl              time.Duration

	rng *lockedRand
	now func() time.Time
}

func NewQuizService(cat *catalog.Catalog, opts QuizOptions) *QuizService {
	if len(opts.Modes) == 0 {
		opts.Modes = DefaultModes
	}
	if opts.Rand == nil {
		opts.Rand = utils.NewRand(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	rng := &lockedRand{r: opts.Rand}
	s := &QuizService{
		catalog:          cat,
		modes:            opts.Modes,
		modeByKey:        make(map[string]Mode, len(opts.Modes)),
		queues:           NewQueueManager(cat.Entries(), opts.Modes, rng),
		store:            NewSessionStore(opts.Shards),
		matcher:          Matcher{Threshold: opts.Threshold},
		isolation:        opts.Isolation,
		channelExclusive: opts.ChannelExclusive,
		ttl:              opts.SessionTTL,
		rng:              rng,
		now:              opts.Now,
	}
	for _, m := range opts.Modes {
		s.modeByKey[m.Key] = m
	}
	return s
}

// KeyFor maps an origin to its isolation key.
func (s *QuizService) KeyFor(origin Origin) Key {
	if s.isolation == IsolateUser {
		return Key{ChatID: origin.ChatID, UserID: origin.UserID}
	}
	return Key{ChatID: origin.ChatID}
}

// Modes returns the configured modes.
func (s *QuizService) Modes() []Mode {
	return s.modes
}

// Start opens a session in mode and presents its first image.
func (s *QuizService) Start(origin Origin, mode string) (Reply, error) {
	if _, ok := s.modeByKey[mode]; !ok {
		return Reply{}, errors.New(errors.ErrCodeUnknownMode, fmt.Sprintf("unknown mode %q", mode))
	}

	var (
		reply Reply
		err   error
	)
	s.store.With(s.KeyFor(origin), func(v *View) {
		if existing, ok := v.Get(); ok {
			err = errors.New(errors.ErrCodeAlreadyActive, msgAlreadyActive(existing.Mode))
			return
		}
		if s.channelExclusive && s.isolation == IsolateUser {
			if _, busy := v.ChannelOccupant(); busy {
				err = errors.New(errors.ErrCodeChannelBusy, MsgChannelBusy)
				return
			}
		}

		entry, takeErr := s.queues.TakeNext(mode)
		if takeErr != nil {
			err = takeErr
			return
		}

		sess := &Session{
			ID:            utils.GenerateRandomID(8),
			Mode:          mode,
			Target:        entry,
			AcceptedNames: entry.AcceptedNames(),
			CreatedAt:     s.now(),
		}
		v.Create(sess)

		logger.Info("Quiz started",
			"session_id", sess.ID,
			"chat_id", origin.ChatID,
			"user_id", origin.UserID,
			"mode", mode,
			"object", entry.Name,
		)
		reply, err = s.presentImage(sess)
	})
	return reply, err
}

// NextImage presents the next image of the active object, wrapping around.
// mode is the typed prefix ("a.pic"); an empty mode (the /pic command)
// matches any session. A request for another mode is ignored without a reply.
func (s *QuizService) NextImage(origin Origin, mode string) (Reply, error) {
	var (
		reply Reply
		err   error
	)
	s.store.With(s.KeyFor(origin), func(v *View) {
		sess, ok := v.Get()
		if !ok {
			err = s.noActiveSession()
			return
		}
		if s.otherMode(sess, mode, origin) {
			return
		}
		reply, err = s.presentImage(sess)
	})
	return reply, err
}

// RequestHint gives the masked-prefix hint first, then the authored hint (or
// the fallback) on every later call. mode follows the NextImage rules.
func (s *QuizService) RequestHint(origin Origin, mode string) (Reply, error) {
	var (
		reply Reply
		err   error
	)
	s.store.With(s.KeyFor(origin), func(v *View) {
		sess, ok := v.Get()
		if !ok {
			err = s.noActiveSession()
			return
		}
		if s.otherMode(sess, mode, origin) {
			return
		}

		if sess.HintStage == 0 {
			reply = Reply{Text: msgFirstHint(utils.FirstRunes(sess.Target.Name, 3))}
			sess.HintStage = 1
			return
		}

		if sess.Target.Hint != "" {
			reply = Reply{Text: msgSecondHint(sess.Target.Hint)}
		} else {
			reply = Reply{Text: MsgNoMoreHints}
		}
		sess.HintStage = 2
	})
	return reply, err
}

// Skip reveals the answer and ends the session.
func (s *QuizService) Skip(origin Origin) (Reply, error) {
	var (
		reply Reply
		err   error
	)
	s.store.With(s.KeyFor(origin), func(v *View) {
		sess, ok := v.Get()
		if !ok {
			err = s.noActiveSession()
			return
		}
		reply = s.resolve(v, sess, "skipped")
	})
	return reply, err
}

// SubmitGuess judges text typed with mode's prefix. A guess for another
// mode is ignored without a reply.
func (s *QuizService) SubmitGuess(origin Origin, mode, text string) (Reply, error) {
	guess := utils.NormalizeGuess(text)

	var (
		reply Reply
		err   error
	)
	s.store.With(s.KeyFor(origin), func(v *View) {
		sess, ok := v.Get()
		if !ok {
			err = s.noActiveSession()
			return
		}
		if s.otherMode(sess, mode, origin) {
			return
		}

		if guess == SkipKeyword {
			reply = s.resolve(v, sess, "skipped")
			return
		}

		if s.matcher.IsAcceptable(guess, sess.AcceptedNames) {
			reply = s.resolve(v, sess, "correct")
			logger.Info("Correct answer", "session_id", sess.ID, "chat_id", origin.ChatID, "user_id", origin.UserID)
			return
		}

		if utils.RuneLen(guess) <= ShortGuessLength {
			return
		}
		reply = Reply{Text: Insults[s.rng.IntN(len(Insults))]}
	})
	return reply, err
}

// ExpireStale ends sessions older than the configured TTL. It does nothing
// when no TTL is set.
func (s *QuizService) ExpireStale() []Expiry {
	if s.ttl <= 0 {
		return nil
	}

	expired := s.store.RemoveExpired(s.now().Add(-s.ttl))
	out := make([]Expiry, 0, len(expired))
	for _, sess := range expired {
		logger.Info("Quiz expired", "session_id", sess.ID, "chat_id", sess.Key.ChatID, "mode", sess.Mode)
		out = append(out, Expiry{
			ChatID: sess.Key.ChatID,
			Reply:  Reply{Text: msgExpired(sess.Target)},
		})
	}
	return out
}

// ActiveSessions counts live sessions.
func (s *QuizService) ActiveSessions() int {
	return s.store.Len()
}

// QueueDepths reports, per mode, how many objects are left before the next
// reshuffle.
func (s *QuizService) QueueDepths() map[string]int {
	depths := make(map[string]int, len(s.modes))
	for _, m := range s.modes {
		depths[m.Key] = s.queues.Remaining(m.Key)
	}
	return depths
}

// CatalogSize counts catalog entries, eligible or not.
func (s *QuizService) CatalogSize() int {
	return s.catalog.Len()
}

func (s *QuizService) presentImage(sess *Session) (Reply, error) {
	images := sess.Target.Images
	if len(images) == 0 {
		logger.Warn("Catalog entry has no images", "object", sess.Target.Name, "session_id", sess.ID)
		return Reply{}, errors.New(errors.ErrCodeNoImages, MsgNoImages)
	}

	url := images[sess.ImageCursor%len(images)]
	sess.ImageCursor++

	return Reply{Image: &ImagePrompt{
		URL:    url,
		Title:  QuizTitle,
		Footer: footer(sess.Mode),
	}}, nil
}

func (s *QuizService) resolve(v *View, sess *Session, outcome string) Reply {
	v.Destroy()
	logger.Info("Quiz resolved", "session_id", sess.ID, "chat_id", sess.Key.ChatID, "outcome", outcome)
	if outcome == "correct" {
		return Reply{Text: msgCorrect(sess.Target)}
	}
	return Reply{Text: msgSkipped(sess.Target)}
}

// otherMode reports whether a prefixed request targets a mode other than the
// session's.
func (s *QuizService) otherMode(sess *Session, mode string, origin Origin) bool {
	if mode == "" || mode == sess.Mode {
		return false
	}
	logger.Debug("Request for another mode ignored", "chat_id", origin.ChatID, "session_mode", sess.Mode, "request_mode", mode)
	return true
}

func (s *QuizService) noActiveSession() error {
	return errors.New(errors.ErrCodeNoActiveSession, msgNoActiveSession(s.modes))
}

type lockedRand struct {
	mu sync.Mutex
	r  RandSource
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}
