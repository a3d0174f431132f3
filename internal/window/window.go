// internal/window/window.go
package window

import (
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/callforge/dialer-backend/internal/apperrors"
)

// Config is a campaign's calling-window configuration: an IANA timezone,
// a local HH:MM start and end, and the weekdays on which dialing is
// allowed. An end before the start wraps past midnight (22:00-06:00 is a
// valid window spanning two calendar days); the weekday check applies to
// the day the window starts.
type Config struct {
    Timezone  string
    StartTime string
    EndTime   string
    Days      []string
}

// Result carries the in-window decision plus a diagnostic for callers
// that want to show why dispatch is (not) happening. Summary is
// presentation-only.
type Result struct {
    Within    bool       `json:"within_window"`
    Reason    string     `json:"reason"`
    NextStart *time.Time `json:"next_window_start,omitempty"`
    Summary   string     `json:"summary"`
}

var weekdayNames = map[string]time.Weekday{
    "sunday":    time.Sunday,
    "monday":    time.Monday,
    "tuesday":   time.Tuesday,
    "wednesday": time.Wednesday,
    "thursday":  time.Thursday,
    "friday":    time.Friday,
    "saturday":  time.Saturday,
}

// Evaluate reports whether now falls inside the window. An empty day set
// means no day is allowed, so it always evaluates to false; we do not
// silently treat it as "all days".
func Evaluate(cfg Config, now time.Time) (Result, error) {
    if cfg.Timezone == "" {
        return Result{}, apperrors.NewValidation("timezone", "timezone is required")
    }
    loc, err := time.LoadLocation(cfg.Timezone)
    if err != nil {
        return Result{}, apperrors.NewValidation("timezone", fmt.Sprintf("invalid IANA timezone %q", cfg.Timezone))
    }

    startMin, err := parseHHMM(cfg.StartTime)
    if err != nil {
        return Result{}, apperrors.NewValidation("start_time", err.Error())
    }
    endMin, err := parseHHMM(cfg.EndTime)
    if err != nil {
        return Result{}, apperrors.NewValidation("end_time", err.Error())
    }

    allowed := make(map[time.Weekday]bool, len(cfg.Days))
    for _, name := range cfg.Days {
        wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
        if !ok {
            return Result{}, apperrors.NewValidation("days_of_week", fmt.Sprintf("unknown weekday %q", name))
        }
        allowed[wd] = true
    }

    res := Result{Summary: summarize(cfg.StartTime, cfg.EndTime, cfg.Days)}

    local := now.In(loc)
    nowMin := local.Hour()*60 + local.Minute()

    if len(allowed) == 0 {
        res.Reason = "no allowed days configured"
        return res, nil
    }

    switch {
    case startMin < endMin:
        if !allowed[local.Weekday()] {
            res.Reason = fmt.Sprintf("%s is not an allowed day", dayName(local.Weekday()))
        } else if nowMin >= startMin && nowMin < endMin {
            res.Within = true
            res.Reason = "within window"
        } else {
            res.Reason = "outside allowed hours"
        }
    case startMin > endMin:
        // Wrapping window. The pre-midnight leg belongs to today; the
        // post-midnight leg belongs to the day the window started.
        if nowMin >= startMin {
            if allowed[local.Weekday()] {
                res.Within = true
                res.Reason = "within window"
            } else {
                res.Reason = fmt.Sprintf("%s is not an allowed day", dayName(local.Weekday()))
            }
        } else if nowMin < endMin {
            prev := local.AddDate(0, 0, -1).Weekday()
            if allowed[prev] {
                res.Within = true
                res.Reason = "within window"
            } else {
                res.Reason = fmt.Sprintf("window starting %s is not allowed", dayName(prev))
            }
        } else {
            res.Reason = "outside allowed hours"
        }
    default:
        res.Reason = "window has zero length"
        return res, nil
    }

    if !res.Within {
        res.NextStart = nextStart(local, startMin, allowed, loc)
    }
    return res, nil
}

// Validate checks a window config without evaluating it, for use at
// campaign creation time.
func Validate(cfg Config) error {
    if cfg.Timezone == "" {
        return apperrors.NewValidation("timezone", "timezone is required")
    }
    if _, err := time.LoadLocation(cfg.Timezone); err != nil {
        return apperrors.NewValidation("timezone", fmt.Sprintf("invalid IANA timezone %q", cfg.Timezone))
    }
    if _, err := parseHHMM(cfg.StartTime); err != nil {
        return apperrors.NewValidation("start_time", err.Error())
    }
    if _, err := parseHHMM(cfg.EndTime); err != nil {
        return apperrors.NewValidation("end_time", err.Error())
    }
    for _, name := range cfg.Days {
        if _, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; !ok {
            return apperrors.NewValidation("days_of_week", fmt.Sprintf("unknown weekday %q", name))
        }
    }
    return nil
}

func parseHHMM(s string) (int, error) {
    parts := strings.SplitN(s, ":", 2)
    if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
        return 0, fmt.Errorf("time %q is not in HH:MM format", s)
    }
    h, err := strconv.Atoi(parts[0])
    if err != nil || h < 0 || h > 23 {
        return 0, fmt.Errorf("time %q has an invalid hour", s)
    }
    m, err := strconv.Atoi(parts[1])
    if err != nil || m < 0 || m > 59 {
        return 0, fmt.Errorf("time %q has an invalid minute", s)
    }
    return h*60 + m, nil
}

// nextStart finds the next instant the window opens, scanning at most a
// week ahead of the given local time.
func nextStart(local time.Time, startMin int, allowed map[time.Weekday]bool, loc *time.Location) *time.Time {
    for d := 0; d <= 7; d++ {
        day := local.AddDate(0, 0, d)
        if !allowed[day.Weekday()] {
            continue
        }
        candidate := time.Date(day.Year(), day.Month(), day.Day(), startMin/60, startMin%60, 0, 0, loc)
        if candidate.After(local) {
            return &candidate
        }
    }
    return nil
}

func dayName(wd time.Weekday) string {
    return strings.ToLower(wd.String())
}

func summarize(start, end string, days []string) string {
    if len(days) == 0 {
        return fmt.Sprintf("%s–%s, no days allowed", start, end)
    }
    lowered := make([]string, len(days))
    for i, d := range days {
        lowered[i] = strings.ToLower(strings.TrimSpace(d))
    }
    return fmt.Sprintf("%s–%s on %s", start, end, strings.Join(lowered, ", "))
}
