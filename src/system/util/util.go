package util

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/voodooEntity/gits/src/transport"
)

// GenerateSignature builds a deterministic hash over a transport entity
// graph. Used to detect structural change between observer ticks and to
// stamp snapshots.
func GenerateSignature(entity transport.TransportEntity) string {
	hash := sha1.Sum([]byte(rCanonical(entity)))
	return hex.EncodeToString(hash[:])
}

func rCanonical(entity transport.TransportEntity) string {
	out := entity.Type + ":" + strconv.Itoa(entity.ID) + ":" + entity.Value
	if len(entity.Properties) > 0 {
		keys := make([]string, 0, len(entity.Properties))
		for key := range entity.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			out += "|" + key + "=" + entity.Properties[key]
		}
	}
	for _, childRelation := range entity.ChildRelations {
		out += "(" + rCanonical(childRelation.Target) + ")"
	}
	return out
}

// CopyStringStringMap returns an independent copy of a properties map.
func CopyStringStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
