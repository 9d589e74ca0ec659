package shein

import (
	"fmt"
	"strconv"
	"time"
)

// The open API exists in two protocol generations that differ in header
// names, timestamp units, pagination field and envelope shape. A profile is
// picked in configuration; "openkey" is the one the manual-auth credential
// scheme uses and is the default.
type Profile struct {
	name           string
	IdentityHeader string // header carrying the signing identity
	TimestampUnit  time.Duration
	PageField      string // pageNo vs pageNum
	EnvelopeField  string // data vs info
	ISOTimeWindow  bool   // order window as RFC3339 vs epoch millis
}

var (
	// ProfileOpenKey — current generation, signed with the stored
	// openKeyId/secretKey pair.
	ProfileOpenKey = Profile{
		name:           "openkey",
		IdentityHeader: "x-lt-openKeyId",
		TimestampUnit:  time.Second,
		PageField:      "pageNo",
		EnvelopeField:  "data",
		ISOTimeWindow:  true,
	}

	// ProfileAppID — legacy generation kept for older credential sets.
	ProfileAppID = Profile{
		name:           "appid",
		IdentityHeader: "x-lt-appid",
		TimestampUnit:  time.Millisecond,
		PageField:      "pageNum",
		EnvelopeField:  "info",
		ISOTimeWindow:  false,
	}
)

func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", "openkey":
		return ProfileOpenKey, nil
	case "appid":
		return ProfileAppID, nil
	default:
		return Profile{}, fmt.Errorf("unknown shein protocol profile %q", name)
	}
}

func (p Profile) Name() string { return p.name }

// Timestamp renders now in the profile's unit as a decimal string.
func (p Profile) Timestamp(now time.Time) string {
	switch p.TimestampUnit {
	case time.Millisecond:
		return strconv.FormatInt(now.UnixMilli(), 10)
	default:
		return strconv.FormatInt(now.Unix(), 10)
	}
}

// TimeWindowValue renders an order-window boundary for request bodies.
func (p Profile) TimeWindowValue(t time.Time) any {
	if p.ISOTimeWindow {
		return t.UTC().Format(time.RFC3339)
	}
	return t.UnixMilli()
}
