package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/lutron-bridge/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"clock": func(t time.Time) string {
		return t.UTC().Format("15:04:05")
	},
	"millis": func(ms int64) string {
		if ms == 0 {
			return "disabled"
		}
		return fmt.Sprintf("%dms", ms)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Lutron Bridge</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.connected { color: green; }
.disconnected { color: red; }
.flash { background: #ffd; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Lutron Bridge<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Connectivity</h2>
<table>
<tr><th>Repeater</th><td class="{{if .LutronConnected}}connected{{else}}disconnected{{end}}">{{if .LutronConnected}}connected{{else}}disconnected{{end}} ({{.Config.Repeater}})</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Actions</h2>
<table>
<tr><th>pressed</th><td id="count-pressed">{{.Counts.Pressed}}</td></tr>
<tr><th>released</th><td id="count-released">{{.Counts.Released}}</td></tr>
<tr><th>long_pressed</th><td id="count-long_pressed">{{.Counts.LongPressed}}</td></tr>
<tr><th>super_long_pressed</th><td id="count-super_long_pressed">{{.Counts.SuperLongPressed}}</td></tr>
</table>

<h2>Recent activity</h2>
<table id="recent">
<tr><th>Button</th><th>Action</th><th>At</th></tr>
{{range .Recent}}<tr id="btn-{{.FullID}}"><td>{{.AreaName}} / {{.ButtonName}}</td><td>{{.Action}}</td><td>{{clock .At}}</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Buttons</th><td>{{.Buttons}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Event</th><td>{{.Config.EventName}}</td></tr>
<tr><th>Long press</th><td>{{millis .Config.LongPressMs}}</td></tr>
<tr><th>Super long press</th><td>{{millis .Config.SuperLongPressMs}}</td></tr>
<tr><th>Heartbeat</th><td>{{millis .Config.HeartbeatMs}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/logbook.json">Logbook</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var recent = document.getElementById("recent");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function onActivity(msg) {
    var count = document.getElementById("count-" + msg.action);
    if (count) {
      count.textContent = String(Number(count.textContent) + 1);
    }
    var row = document.getElementById("btn-" + msg.full_id);
    if (!row) {
      row = document.createElement("tr");
      row.id = "btn-" + msg.full_id;
      row.appendChild(document.createElement("td"));
      row.appendChild(document.createElement("td"));
      row.appendChild(document.createElement("td"));
    }
    row.cells[0].textContent = msg.area_name + " / " + msg.button_name;
    row.cells[1].textContent = msg.action;
    row.cells[2].textContent = msg.timestamp.substring(11, 19);
    recent.tBodies[0].insertBefore(row, recent.rows[1] || null);
    row.className = "flash";
    setTimeout(function() { row.className = ""; }, 500);
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try { onActivity(JSON.parse(ev.data)); } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// The template formats uptime from a field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
