package status

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v5"
)

type (
	Code int

	// Snapshot is the JSON view of a SimpleStatus at a point in time.
	Snapshot struct {
		Code      Code   `json:"status_code"`
		Message   string `json:"status_msg"`
		Timestamp string `json:"timestamp"`
	}

	// SimpleStatus is written by a watcher goroutine and read by request
	// handlers, so every access goes through the mutex.
	SimpleStatus struct {
		mu      sync.RWMutex
		current Snapshot
		started time.Time
	}
)

const (
	OK Code = iota
	Warning
	Critical
	Unknown
)

func NewStatus() *SimpleStatus {
	s := &SimpleStatus{started: time.Now()}
	s.Unknown("initializing")
	return s
}

func (s *SimpleStatus) newStatus(code Code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Snapshot{Code: code, Message: message, Timestamp: currentTimestamp()}
}

// Current returns the status stamped with the request time.
func (s *SimpleStatus) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.current
	snap.Timestamp = currentTimestamp()
	return snap
}

// Last returns the status exactly as the last update left it, timestamp
// included.
func (s *SimpleStatus) Last() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func currentTimestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// Uptime reports how long this status has existed. For the status created
// at boot that is the process uptime.
func (s *SimpleStatus) Uptime() string {
	return time.Since(s.started).Round(time.Second).String()
}

func (s *SimpleStatus) Ok(message string) {
	s.newStatus(OK, message)
}

func (s *SimpleStatus) Warn(message string) {
	s.newStatus(Warning, message)
}

func (s *SimpleStatus) Critical(message string) {
	s.newStatus(Critical, message)
}

func (s *SimpleStatus) Unknown(message string) {
	s.newStatus(Unknown, message)
}

/*
Handler is used for a slowly changing status where we want to automatically update the timestamp to the current request time
*/
func (s *SimpleStatus) Handler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.Current())
}

/*
BackgroundHandler is used when there will be a background process that updates the status and we want to see the timestamp
of when the background task ran last
*/
func (s *SimpleStatus) BackgroundHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.Last())
}
