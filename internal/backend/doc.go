// Package backend is a small client for the device-management REST API.
//
// Every endpoint answers with the same envelope:
//
//	{"code": 200, "msg": "操作成功", "data": {...}}
//
// A non-200 code is an application error even when the HTTP status is 200.
// An absent or null data member means "no such record" and is reported as
// ErrNotFound so callers can distinguish it from a failed request.
package backend
