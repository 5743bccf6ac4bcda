package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	pinMemoryKB    uint32 = 16 * 1024
	pinTimeCost    uint32 = 2
	pinParallelism uint8  = 1
	pinSaltLength         = 16
	pinKeyLength   uint32 = 32
	pinAlgorithm          = "argon2id"
)

// ErrPINHashMalformed is returned when a stored PIN hash cannot be parsed.
var ErrPINHashMalformed = errors.New("malformed pin hash")

// HashPIN derives an argon2id hash of a short numeric secret in PHC string
// format. PINs carry little entropy, so the cost parameters here lean on
// memory hardness rather than length requirements.
func HashPIN(pin string) (string, error) {
	if pin == "" {
		return "", errors.New("pin must not be empty")
	}

	salt := make([]byte, pinSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(pin), salt, pinTimeCost, pinMemoryKB, pinParallelism, pinKeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		pinAlgorithm,
		argon2.Version,
		pinMemoryKB,
		pinTimeCost,
		pinParallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPIN checks a candidate against a stored hash in constant time.
// The stored hash's own cost parameters are honored, so parameter changes
// do not invalidate existing hashes.
func VerifyPIN(pin, encodedHash string) (bool, error) {
	memory, timeCost, parallelism, salt, hash, err := parsePINHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(pin), salt, timeCost, memory, parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(computed, hash) == 1, nil
}

func parsePINHash(encoded string) (memory, timeCost uint32, parallelism uint8, salt, hash []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != pinAlgorithm {
		return 0, 0, 0, nil, nil, ErrPINHashMalformed
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return 0, 0, 0, nil, nil, ErrPINHashMalformed
	}

	for _, param := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			return 0, 0, 0, nil, nil, ErrPINHashMalformed
		}
		n, convErr := strconv.ParseUint(value, 10, 32)
		if convErr != nil {
			return 0, 0, 0, nil, nil, ErrPINHashMalformed
		}
		switch key {
		case "m":
			memory = uint32(n)
		case "t":
			timeCost = uint32(n)
		case "p":
			if n > 255 {
				return 0, 0, 0, nil, nil, ErrPINHashMalformed
			}
			parallelism = uint8(n)
		default:
			return 0, 0, 0, nil, nil, ErrPINHashMalformed
		}
	}
	if memory == 0 || timeCost == 0 || parallelism == 0 {
		return 0, 0, 0, nil, nil, ErrPINHashMalformed
	}

	salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return 0, 0, 0, nil, nil, ErrPINHashMalformed
	}
	hash, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return 0, 0, 0, nil, nil, ErrPINHashMalformed
	}

	return memory, timeCost, parallelism, salt, hash, nil
}
