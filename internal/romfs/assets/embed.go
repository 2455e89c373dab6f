// Package assets embeds pstore's status-server dashboard: the handful of
// static files served from "/" when the request isn't a /cmd/ dynamic
// endpoint or a channel upgrade.
package assets

import "embed"

//go:embed index.html style.css app.js
var FS embed.FS
