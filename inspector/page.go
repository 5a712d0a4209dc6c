package inspector

// pageHTML lists bridge traffic as it happens.
const pageHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>web2view inspector</title>
<style>
  body { margin: 0; background: #111; color: #ddd; font: 12px/1.4 ui-monospace, Menlo, Consolas, monospace; }
  header { position: sticky; top: 0; padding: 8px 12px; background: #1b1b1b; border-bottom: 1px solid #333; }
  header span { color: #888; margin-left: 12px; }
  table { width: 100%; border-collapse: collapse; }
  td { padding: 3px 12px; border-bottom: 1px solid #222; vertical-align: top; white-space: pre-wrap; word-break: break-all; }
  td.time { color: #777; width: 90px; }
  td.kind { width: 80px; font-weight: bold; }
  tr.inbound td.kind { color: #6cf; }
  tr.command td.kind { color: #c9f; }
  tr.queued td.kind { color: #fc6; }
  tr.delivered td.kind { color: #6f9; }
  tr.dropped td.kind, tr.failed td.kind { color: #f66; }
  tr.navigate td.kind { color: #aaa; }
</style>
</head>
<body>
<header>web2view bridge traffic<span id="status">connecting</span></header>
<table><tbody id="log"></tbody></table>
<script>
(function() {
  var log = document.getElementById("log");
  var status = document.getElementById("status");

  function cell(cls, text) {
    var td = document.createElement("td");
    td.className = cls;
    td.textContent = text;
    return td;
  }

  function describe(e) {
    var parts = [];
    if (e.origin) parts.push("origin=" + e.origin);
    if (e.command) parts.push("command=" + e.command);
    if (e.url) parts.push((e.allowed ? "allow " : "deny ") + e.url);
    if (e.error) parts.push("error=" + e.error);
    if (e.payload !== undefined) parts.push(JSON.stringify(e.payload));
    return parts.join("  ");
  }

  var ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onopen = function() { status.textContent = "live"; };
  ws.onclose = function() { status.textContent = "disconnected"; };
  ws.onmessage = function(msg) {
    var e = JSON.parse(msg.data);
    var tr = document.createElement("tr");
    tr.className = e.kind;
    tr.appendChild(cell("time", new Date(e.time).toLocaleTimeString()));
    tr.appendChild(cell("kind", e.kind));
    tr.appendChild(cell("detail", describe(e)));
    log.insertBefore(tr, log.firstChild);
  };
})();
</script>
</body>
</html>
`
