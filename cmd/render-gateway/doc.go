// Package main hosts the render-gateway entrypoint.
//
// Architecture overview:
//   - HTTP: internal/api.Server mounts health, readiness and metrics under the admin prefix and hands every other
//     path to internal/gateway.Handler.
//   - Decision: the handler classifies the User-Agent (internal/traffic) and the path (internal/route). Only GET
//     requests from search or social crawlers on a product-detail path escalate; everything else is reverse-proxied
//     to the origin unchanged.
//   - Escalation: the product document (Firestore REST or Postgres) and the application shell (sanitized Colly fetch
//     or a GCS object) are fetched concurrently, each with its own timeout. The shell's head is rewritten textually
//     by internal/render. A failed shell fetch proxies the original request; a failed product lookup still serves
//     the shell with the force-visibility style.
//   - Plumbing: Viper reads config from env, an optional file and an optional .env; zap logs one decision line per
//     request; Prometheus collectors and OpenTelemetry spans cover each dependency call; render events go to Pub/Sub
//     when configured.
//
// Quick checklist:
//   - Required: GATEWAY_ORIGIN_URL. Product enrichment also needs GATEWAY_DOCSTORE_PROJECT_ID and
//     GATEWAY_DOCSTORE_API_KEY (FIREBASE_* and VITE_FIREBASE_* are accepted too); without them the gateway is a
//     plain proxy.
//   - Run locally: go run ./cmd/render-gateway serve --config config.yaml
//   - Inspect: render-gateway classify "Twitterbot/1.0" and render-gateway preview abc123
package main
