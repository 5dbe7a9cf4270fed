// Package gateway contains the HTTP clients behind the service layer's
// outbound ports: the Feishu meeting and calendar APIs, the transactional
// email webhook, and the user directory. Each client is a thin
// request/response translation; retry policy and failure handling live
// with the callers.
package gateway
