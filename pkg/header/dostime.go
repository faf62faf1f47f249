package header

import "time"

// ToDOS converts t to MS-DOS time and date fields. Years before 1980 clamp
// to 1980-01-01, years after 2107 to 2107-12-31 23:59:58.
func ToDOS(t time.Time) (dosTime, dosDate uint16) {
	switch {
	case t.Year() < 1980:
		t = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	case t.Year() > 2107:
		t = time.Date(2107, 12, 31, 23, 59, 58, 0, time.UTC)
	}
	dosDate = uint16((t.Year()-1980)<<9 | int(t.Month())<<5 | t.Day())
	dosTime = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()>>1)
	return dosTime, dosDate
}

// FromDOS converts MS-DOS time and date fields to a time in UTC.
func FromDOS(dosTime, dosDate uint16) time.Time {
	return time.Date(
		int(dosDate>>9)+1980,
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f)*2,
		0,
		time.UTC,
	)
}
