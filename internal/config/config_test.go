package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevelList(t *testing.T) {
	a := assert.New(t)

	var l LevelList
	a.NoError(l.UnmarshalText([]byte("debug, trace")))
	a.Equal(LevelList{logrus.DebugLevel, logrus.TraceLevel}, l)

	d, err := l.MarshalText()
	a.NoError(err)
	a.Equal("debug,trace", string(d))

	a.NoError(l.UnmarshalText([]byte("-")))
	a.Equal(LevelList{}, l)

	a.Error(l.UnmarshalText([]byte("loud")))
}

func TestDuration(t *testing.T) {
	for _, tc := range []struct {
		input  string
		output Duration
		err    string
	}{
		{"30s", Duration(time.Second * 30), ""},
		{"1h30m", Duration(time.Hour + time.Minute*30), ""},
		{"0", 0, ""},
		{"", 0, ""},
		{"-5s", 0, "config.Duration.UnmarshalText: duration can not be negative"},
		{"soon", 0, "config.Duration.UnmarshalText: could not parse value as duration"},
	} {
		t.Run(tc.input, func(t *testing.T) {
			a := assert.New(t)

			var d Duration
			err := d.UnmarshalText([]byte(tc.input))
			if tc.err == "" {
				a.NoError(err)
			} else {
				a.ErrorContains(err, tc.err)
			}
			a.Equal(tc.output, d)
		})
	}
}

func TestDurationMarshalText(t *testing.T) {
	a := assert.New(t)

	d, err := Duration(time.Second * 30).MarshalText()
	a.NoError(err)
	a.Equal("30s", string(d))
	a.Equal(time.Second*30, Duration(time.Second*30).Duration())
}

func TestCacheMode(t *testing.T) {
	for _, tc := range []struct {
		input  string
		output CacheMode
		err    bool
	}{
		{"none", CacheModeNone, false},
		{"", CacheModeNone, false},
		{"Simple", CacheModeSimple, false},
		{"rfc", CacheModeRFC, false},
		{"sometimes", "", true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			a := assert.New(t)

			var m CacheMode
			err := m.UnmarshalText([]byte(tc.input))
			if tc.err {
				a.Error(err)
			} else {
				a.NoError(err)
			}
			a.Equal(tc.output, m)
		})
	}
}

func TestCacheEnabled(t *testing.T) {
	a := assert.New(t)

	a.False(Config{}.CacheEnabled())
	a.False(Config{ApplicationCachePath: "cache.db", ApplicationCacheMode: CacheModeNone}.CacheEnabled())
	a.False(Config{ApplicationCacheMode: CacheModeRFC}.CacheEnabled())
	a.True(Config{ApplicationCachePath: "cache.db", ApplicationCacheMode: CacheModeSimple}.CacheEnabled())
}
