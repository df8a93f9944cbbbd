/*
Copyright 2026 Red Hat, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ocscommon

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/api/resource"
	utilrand "k8s.io/apimachinery/pkg/util/rand"
)

func Contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var GetCurrentTimeString = getCurrentTimeString

func getCurrentTimeString() string {
	return time.Now().Format(time.RFC3339)
}

// RandomName returns prefix plus a random lowercase suffix, usable for
// bucket and k8s object names
func RandomName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, utilrand.String(8))
}

func ShowObjectDiff(l zerolog.Logger, oldObject, newObject interface{}) {
	oldObjectType := fmt.Sprintf("%T", oldObject)
	newObjectType := fmt.Sprintf("%T", newObject)
	if oldObjectType != newObjectType {
		l.Error().Msgf("can't compare two different object types: %s and %s", oldObjectType, newObjectType)
		return
	}
	resourceQtyComparer := cmp.Comparer(func(x, y resource.Quantity) bool { return x.Cmp(y) == 0 })
	diff := cmp.Diff(oldObject, newObject, resourceQtyComparer)
	if diff != "" {
		l.Trace().Msgf("object %s has changed, diff:\n%s", oldObjectType, diff)
	}
}

func SortedMapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func GetStringSha256(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	bs := h.Sum(nil)
	return fmt.Sprintf("%x", bs)
}
