package studykit

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"
)

const (
	keyDailyActivity = "daily_activity"
	keySessionStart  = "practice_session_start"

	dateFormat = "2006-01-02"
)

// Activity is one day's local study counters.
type Activity struct {
	Date              string `json:"date"`
	QuestionsAnswered int    `json:"questions_answered"`
	PracticeMinutes   int    `json:"practice_minutes"`
}

// ActivityStore tracks per-day question and practice-minute counts in a local
// KV store, resetting automatically at day boundaries. All read-modify-write
// sequences run under one mutex, so concurrent increments cannot lose
// updates; sequential callers observe the same behavior either way.
//
// Storage failures never propagate: losing a day's counter is low-stakes and
// must not block the study flow, so reads fall back to a zeroed record with a
// logged warning.
type ActivityStore struct {
	mu  sync.Mutex
	kv  KV
	now func() time.Time
}

func NewActivityStore(kv KV) *ActivityStore {
	return &ActivityStore{kv: kv, now: time.Now}
}

// NewActivityStoreAt is NewActivityStore with an injectable clock.
func NewActivityStoreAt(kv KV, now func() time.Time) *ActivityStore {
	return &ActivityStore{kv: kv, now: now}
}

// GetTodayActivity returns today's record, rolling the stored one over to a
// zeroed record when its date is no longer today.
func (s *ActivityStore) GetTodayActivity() Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadToday()
}

// loadToday applies rollover. Callers hold s.mu.
func (s *ActivityStore) loadToday() Activity {
	today := s.now().Format(dateFormat)
	zero := Activity{Date: today}

	raw, err := s.kv.Get(keyDailyActivity)
	if err == ErrKeyNotFound {
		s.persist(zero)
		return zero
	}
	if err != nil {
		log.Printf("studykit: activity read failed, using zeroed record: %v", err)
		return zero
	}
	var a Activity
	if err := json.Unmarshal(raw, &a); err != nil {
		log.Printf("studykit: activity record corrupt, resetting: %v", err)
		s.persist(zero)
		return zero
	}
	if a.Date != today {
		s.persist(zero)
		return zero
	}
	return a
}

func (s *ActivityStore) persist(a Activity) {
	buf, _ := json.Marshal(a)
	if err := s.kv.Set(keyDailyActivity, buf); err != nil {
		log.Printf("studykit: activity write failed: %v", err)
	}
}

// IncrementQuestions adds count to today's answered-question tally. Negative
// counts are ignored.
func (s *ActivityStore) IncrementQuestions(count int) Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.loadToday()
	if count > 0 {
		a.QuestionsAnswered += count
		s.persist(a)
	}
	return a
}

// AddPracticeMinutes adds minutes directly, for out-of-band tracking.
func (s *ActivityStore) AddPracticeMinutes(minutes int) Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.loadToday()
	if minutes > 0 {
		a.PracticeMinutes += minutes
		s.persist(a)
	}
	return a
}

// StartSession records the wall-clock start of a practice sitting.
func (s *ActivityStore) StartSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if err := s.kv.Set(keySessionStart, []byte(strconv.FormatInt(ms, 10))); err != nil {
		log.Printf("studykit: session start write failed: %v", err)
	}
}

// EndSession folds the elapsed whole minutes since StartSession into today's
// practice minutes and clears the start mark. Without a prior StartSession it
// is a no-op returning 0, so it is safe to call defensively.
func (s *ActivityStore) EndSession() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(keySessionStart)
	if err != nil {
		return 0
	}
	start, perr := strconv.ParseInt(string(raw), 10, 64)
	_ = s.kv.Delete(keySessionStart)
	if perr != nil {
		log.Printf("studykit: session start mark corrupt: %v", perr)
		return 0
	}

	elapsed := int((s.now().UnixMilli() - start) / 60000)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > 0 {
		a := s.loadToday()
		a.PracticeMinutes += elapsed
		s.persist(a)
	}
	return elapsed
}

// ResetToday force-zeroes today's record.
func (s *ActivityStore) ResetToday() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist(Activity{Date: s.now().Format(dateFormat)})
}
