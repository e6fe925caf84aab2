package scanner

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src Source) []Advertisement {
	t.Helper()

	var advs []Advertisement
	timeout := time.After(2 * time.Second)
	for {
		select {
		case adv, ok := <-src.Advertisements():
			if !ok {
				return advs
			}
			advs = append(advs, adv)
		case <-timeout:
			t.Fatal("timed out waiting for advertisement stream to close")
		}
	}
}

func TestStreamDecodesAdvertisements(t *testing.T) {
	input := `{"address":"aa:bb:cc:dd:ee:ff","name":"Test Buds","left_battery":72,"right_battery":70,"case_battery":90,"left_in_ear":true,"right_in_ear":true,"rssi":-54}
{"address":"aa:bb:cc:dd:ee:ff","name":"Test Buds","left_battery":71,"right_battery":70,"case_battery":90,"left_charging":false,"case_charging":true}
`

	src := NewStreamSource(strings.NewReader(input))
	defer src.Close()

	advs := collect(t, src)
	require.Len(t, advs, 2)

	assert.Equal(t, "aa:bb:cc:dd:ee:ff", advs[0].Address)
	assert.Equal(t, "Test Buds", advs[0].Name)
	assert.Equal(t, 72, advs[0].LeftBattery)
	assert.True(t, advs[0].LeftInEar)
	require.NotNil(t, advs[0].RSSI)
	assert.Equal(t, -54, *advs[0].RSSI)

	assert.True(t, advs[1].CaseCharging)
	assert.Nil(t, advs[1].RSSI)
}

func TestStreamSkipsMalformedAndBlankLines(t *testing.T) {
	input := `
{"address":"aa","left_battery":50,"right_battery":50,"case_battery":50}
not json at all
{"address":"bb","left_battery":40,"right_battery":40,"case_battery":40}
`

	src := NewStreamSource(strings.NewReader(input))
	defer src.Close()

	advs := collect(t, src)
	require.Len(t, advs, 2)
	assert.Equal(t, "aa", advs[0].Address)
	assert.Equal(t, "bb", advs[1].Address)
}

func TestStreamClosesChannelOnEOF(t *testing.T) {
	src := NewStreamSource(strings.NewReader(""))
	defer src.Close()

	select {
	case _, ok := <-src.Advertisements():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel never closed on EOF")
	}
}

func TestReadingMapsSentinelsToAbsent(t *testing.T) {
	adv := Advertisement{
		Address:      "aa:bb:cc:dd:ee:ff",
		Name:         "Test Buds",
		LeftBattery:  72,
		RightBattery: -1,
		CaseBattery:  150,
		LeftInEar:    true,
	}

	r := adv.Reading()

	require.NotNil(t, r.Left)
	assert.Equal(t, 72, *r.Left)
	assert.Nil(t, r.Right, "-1 marks an unreported level")
	assert.Nil(t, r.Case, "out-of-range levels are dropped")
	assert.True(t, r.LeftInEar)
	assert.Equal(t, "Test Buds", r.Name)
}
