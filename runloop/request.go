// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package runloop

import "strings"

// RequestKind selects which of the runloop's queues a pushed message is
// routed to. Numeric values are not part of the contract — only the
// tagged set is.
type RequestKind uint8

const (
	KindNone RequestKind = iota
	KindFile
	KindImage
	KindHTTP
	KindOverlay
)

// request is a parsed "<primary>|<secondary>" Request. Primary is a URL
// or file path; Secondary, when non-empty, names a completion callback
// to bind instead of the pipeline's default.
type request struct {
	Primary   string
	Secondary string
}

// parseRequest splits raw on the first '|'. A raw value with no '|' is
// treated as Primary with an empty Secondary. An empty Primary is a
// BadRequest: parseRequest reports ok=false and the caller must drop
// the Request.
func parseRequest(raw string) (req request, ok bool) {
	primary, secondary, _ := strings.Cut(raw, "|")
	if primary == "" {
		return request{}, false
	}
	return request{Primary: primary, Secondary: secondary}, true
}

// encodeRequest builds the "<primary>|<secondary>" wire form pushed
// onto a Queue.
func encodeRequest(primary, secondary string) string {
	return primary + "|" + secondary
}
