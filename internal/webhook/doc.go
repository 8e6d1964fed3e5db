// Package webhook turns signed HTTP POSTs into command submissions.
//
// Each configured endpoint maps one path onto one command. The request body
// must carry an HMAC-SHA256 signature made with the endpoint's secret, in
// either "sha256=<hex>" or bare hex form.
//
//	webhooks:
//	  listen: "127.0.0.1:8081"
//	  endpoints:
//	    - path: /hooks/deploy
//	      command: state.set
//	      secret: ${DEPLOY_HOOK_SECRET}
//	      signature_header: X-Hub-Signature-256
//	      max_body_size: 64KB
//
// A JSON object body becomes the command's parameters. Any other body is
// passed as {"body": "<raw text>"}. Submission never blocks: when the
// dispatcher queue is full the caller gets 503 and may retry.
//
// Verification failures always answer a bare 403 so callers learn nothing
// about which check failed.
package webhook
