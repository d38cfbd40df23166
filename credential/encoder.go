package credential

import (
	"encoding/json"
	"errors"
	"strconv"
)

const profileFormatVersionCurrent = 1

var errProfileVersion = errors.New("unsupported profile format version")

type profileEnvelope struct {
	Version int         `json:"v"`
	Profile UserProfile `json:"profile"`
}

// EncodeProfile serializes a profile for the user key.
func EncodeProfile(p UserProfile) ([]byte, error) {
	return json.Marshal(profileEnvelope{
		Version: profileFormatVersionCurrent,
		Profile: p,
	})
}

// DecodeProfile parses a value written by [EncodeProfile].
func DecodeProfile(data []byte) (UserProfile, error) {
	var env profileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return UserProfile{}, err
	}
	if env.Version != profileFormatVersionCurrent {
		return UserProfile{}, errProfileVersion
	}
	if env.Profile.ID == "" {
		return UserProfile{}, errors.New("profile missing id")
	}
	return env.Profile, nil
}

func encodeExpiry(ms int64) string {
	return strconv.FormatInt(ms, 10)
}

func decodeExpiry(raw string) (int64, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if ms <= 0 {
		return 0, errors.New("non-positive expiry")
	}
	return ms, nil
}
