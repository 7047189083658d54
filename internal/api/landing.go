package api

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>commitscope</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  .card { max-width: 640px; width: 90%; background: #1e293b; border-radius: 12px; padding: 2.5rem; }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin: 1.25rem 0 0.5rem; }
  a { color: #38bdf8; text-decoration: none; }
  .endpoint { font-family: "SF Mono", Menlo, monospace; font-size: 0.9rem; color: #a5b4fc; }
  p { margin-bottom: 0.35rem; }
</style>
</head>
<body>
<div class="card">
  <h1>commitscope</h1>
  <p class="subtitle">Semantic search over GitHub commits, summarized by technology, pattern and domain knowledge.</p>

  <div class="section-title">Endpoints</div>
  <p><a href="/search?query=retry" class="endpoint">GET /search?query=</a> ranked commits</p>
  <p><span class="endpoint">GET /process?user=</span> ingest a user's commits</p>
  <p><span class="endpoint">/mcp</span> MCP Streamable HTTP</p>
  <p><a href="/health" class="endpoint">/health</a> store health</p>
  <p><a href="/metrics" class="endpoint">/metrics</a> Prometheus metrics</p>
</div>
</body>
</html>`

func landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(landingHTML))
}
