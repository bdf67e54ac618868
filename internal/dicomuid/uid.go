// Package dicomuid mints DICOM unique identifiers in the UUID-derived
// 2.25 root defined by PS3.5 B.2.
package dicomuid

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// namespace scopes deterministic sham UIDs to this project.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://diana.invalid/uid"))

// Mint returns a fresh, globally unique DICOM UID.
func Mint() string {
	return fromUUID(uuid.New())
}

// Sham returns a deterministic UID for the given name parts. The same parts
// always yield the same UID, so re-anonymizing a study is stable across runs.
func Sham(parts ...string) string {
	return fromUUID(uuid.NewSHA1(namespace, []byte(strings.Join(parts, "|"))))
}

func fromUUID(u uuid.UUID) string {
	n := new(big.Int).SetBytes(u[:])
	return "2.25." + n.String()
}
