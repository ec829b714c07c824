package gridtap

import "time"

const dateLayout = "2006-01-02"

type Date string

func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func (d Date) Time() (time.Time, error) {
	return time.ParseInLocation(dateLayout, string(d), time.Local)
}
