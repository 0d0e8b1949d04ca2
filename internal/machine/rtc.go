package machine

import (
	"time"

	"github.com/micro-nova/pico-emu/internal/events"
)

// Datetime is the RTC tuple: year, month, day, weekday (0 is Monday), hours,
// minutes, seconds, subseconds.
type Datetime [8]int

// DatetimeOf converts t to an RTC tuple.
func DatetimeOf(t time.Time) Datetime {
	return Datetime{
		t.Year(), int(t.Month()), t.Day(),
		(int(t.Weekday()) + 6) % 7,
		t.Hour(), t.Minute(), t.Second(), 0,
	}
}

// RTC is a real-time clock façade.
type RTC struct {
	b        *Board
	id       int
	dt       Datetime
	alarmAt  time.Time
	handler  func(*RTC)
	hasAlarm bool
}

// RTC opens clock id, initialised from the store clock.
func (b *Board) RTC(id int) *RTC {
	dt := DatetimeOf(b.store.Now())
	b.store.Emit("rtc_init", events.Fields{"id": id, "datetime": dt[:]})
	return &RTC{b: b, id: id, dt: dt}
}

// Init sets the clock.
func (r *RTC) Init(dt Datetime) { r.SetDatetime(dt) }

// Datetime returns the last set time.
func (r *RTC) Datetime() Datetime { return r.dt }

// SetDatetime sets the clock.
func (r *RTC) SetDatetime(dt Datetime) {
	r.dt = dt
	r.b.store.Emit("rtc_set", events.Fields{"id": r.id, "datetime": dt[:]})
}

// Alarm schedules alarm id ms milliseconds from now.
func (r *RTC) Alarm(id, ms int, repeat bool) {
	r.alarmAt = r.b.store.Now().Add(time.Duration(ms) * time.Millisecond)
	r.hasAlarm = true
	r.b.store.Emit("rtc_alarm_set", events.Fields{"id": id, "time": ms, "repeat": repeat})
}

// AlarmLeft returns the milliseconds until the alarm fires, or 0 when none
// is pending.
func (r *RTC) AlarmLeft(id int) int {
	if !r.hasAlarm {
		return 0
	}
	return max(0, int(r.alarmAt.Sub(r.b.store.Now()).Milliseconds()))
}

// Cancel drops the pending alarm and its handler.
func (r *RTC) Cancel(id int) {
	r.hasAlarm = false
	r.handler = nil
	r.b.store.Emit("rtc_alarm_cancel", events.Fields{"id": id})
}

// IRQ stores the alarm handler. It is never invoked.
func (r *RTC) IRQ(handler func(*RTC), trigger, wake int) {
	r.handler = handler
	r.b.store.Emit("rtc_irq_set", events.Fields{"trigger": trigger, "wake": wake})
}
