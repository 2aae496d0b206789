package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Timestamp принимает RFC 3339 строку или unix-секунды. null оставляет нулевое значение.
type Timestamp time.Time

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := ParseTime(s)
		if err != nil {
			return err
		}
		*t = Timestamp(parsed)
		return nil
	}
	var ts int64
	if err := json.Unmarshal(b, &ts); err != nil {
		return fmt.Errorf("timestamp: expected RFC 3339 string or unix seconds")
	}
	*t = Timestamp(time.Unix(ts, 0).UTC())
	return nil
}

func (t Timestamp) Time() time.Time { return time.Time(t) }

// ParseTime разбирает то же для query-параметров (RFC 3339 или целые секунды).
func ParseTime(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(ts, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: expected RFC 3339 or unix seconds", s)
	}
	return t.UTC(), nil
}

// Reading: показание, присланное датчиком.
type Reading struct {
	Timestamp   Timestamp `json:"timestamp"`
	Temperature *float64  `json:"temperature" validate:"required"`
	Humidity    *float64  `json:"humidity" validate:"required"`
	Pressure    *float64  `json:"pressure" validate:"required"`
	Altitude    *float64  `json:"altitude"`
	RSSI        *int      `json:"rssi"`
	RetryCount  *int      `json:"retry_count" validate:"omitempty,gte=0"`
}

// Response: показание в ответах и в потоке.
type Response struct {
	Sensor      string    `json:"sensor"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	Altitude    *float64  `json:"altitude"`
	RSSI        *int      `json:"rssi"`
	RetryCount  *int      `json:"retry_count"`
}
