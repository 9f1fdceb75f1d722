package api

const callbackDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Callbacks and Events - JSONRequest</title>
  <style>
    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
    }
    a { color: #58a6ff; text-decoration: none; }
    nav {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
    }
    nav .brand { font-weight: 600; font-size: 15px; color: #e6edf3; }
    main { max-width: 860px; margin: 0 auto; padding: 24px 16px 64px; }
    h1, h2 { color: #e6edf3; }
    h2 { border-bottom: 1px solid #30363d; padding-bottom: 6px; margin-top: 40px; }
    code { background: #161b22; border-radius: 4px; padding: 1px 5px; font-size: 13px; }
    pre { background: #161b22; border: 1px solid #30363d; border-radius: 6px; padding: 12px 16px; overflow-x: auto; }
    pre code { background: none; padding: 0; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #30363d; padding: 6px 10px; text-align: left; }
    th { background: #161b22; }
  </style>
</head>
<body>
  <nav>
    <span class="brand">JSONRequest</span>
    <a href="/docs">REST API Docs</a>
  </nav>
  <main>
    <h1>Callbacks and Events</h1>

    <h2 id="ws">Callback socket</h2>
    <p>
      <code>GET /api/v1/ws</code> upgrades to a WebSocket. Each text frame starts one fetch and
      returns immediately. The outcome arrives later as its own frame, tagged with the call id.
      Replies to concurrent calls may arrive in any order.
    </p>
    <pre><code>{"id": "1", "op": "get",  "args": {"url": "/quote?s=ACME", "timeout": 2000}}
{"id": "2", "op": "post", "args": {"url": "/orders", "send": {"qty": 3}}}</code></pre>
    <p>Every call is answered exactly once:</p>
    <pre><code>{"id": "2", "callback": "complete", "value": {"order": 17}}
{"id": "1", "callback": "error", "kind": "JSONRequestError", "message": "no response"}</code></pre>
    <table>
      <thead><tr><th>message</th><th>meaning</th></tr></thead>
      <tbody>
        <tr><td><code>bad URL</code></td><td>URL could not be resolved or connected to</td></tr>
        <tr><td><code>bad timeout</code></td><td>negative timeout</td></tr>
        <tr><td><code>no response</code></td><td>timeout or connection closed early</td></tr>
        <tr><td><code>bad response</code></td><td>body is not JSON</td></tr>
        <tr><td><code>not ok</code></td><td>status other than 200</td></tr>
      </tbody>
    </table>
    <p>
      Frames that can't be parsed are answered with <code>"kind": "ProtocolError"</code>.
      A missing id is replaced by a generated one.
    </p>

    <h2 id="events">Outcome events</h2>
    <p>
      <code>GET /api/v1/events</code> streams a report for every finished fetch as Server-Sent
      Events. The event name is the outcome (<code>complete</code> or <code>error</code>);
      filter with <code>?feeds=error</code> and, by target host, <code>?hosts=api.example.com</code>.
    </p>
    <pre><code>id: 6f1c2a9e-...
event: error
data: {"id":"6f1c2a9e-...","method":"GET","url":"http://127.0.0.1/x","proxy":"none","status":404,"outcome":"error","message":"not ok",...}</code></pre>
    <p>Slow subscribers have events dropped rather than stalling fetches.</p>
  </main>
</body>
</html>`
