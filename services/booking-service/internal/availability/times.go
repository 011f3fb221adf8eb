package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// TimeToMinutes converts a 24-hour "HH:MM" string to minutes since midnight.
// Malformed input is a caller bug; the result for garbage is unspecified.
func TimeToMinutes(t string) int {
	h, m, _ := strings.Cut(t, ":")
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	return hours*60 + minutes
}

// AddMinutes returns t shifted forward by d minutes, zero-padded.
// It does not wrap across midnight: the hour component may exceed 23, and a
// result past 23:59 means the caller asked for an out-of-range day.
func AddMinutes(t string, d int) string {
	total := TimeToMinutes(t) + d
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func minutesToTime(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
