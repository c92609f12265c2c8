package diagnostics

// indexHTML is the dashboard page. It is inlined rather than loaded via
// go:embed, since this system carries no template assets on disk.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
	<title>h5vfs diagnostics</title>
	<meta charset="utf-8">
	<style>
		body { font-family: monospace; margin: 2em; background: #111; color: #ddd; }
		h1 { color: #fff; }
		table { border-collapse: collapse; margin-bottom: 2em; }
		td { padding: 2px 1em; }
		td.k { color: #888; }
		pre { background: #000; padding: 1em; overflow-x: auto; max-height: 40em; }
	</style>
</head>
<body>
	<h1>h5vfs {{.Version}}</h1>

	<table>
		<tr><td class="k">open files</td><td>{{.OpenFiles}}</td></tr>
		<tr><td class="k">total opens</td><td>{{.TotalOpens}}</td></tr>
		<tr><td class="k">total releases</td><td>{{.TotalReleases}}</td></tr>
		<tr><td class="k">raw-offset reads</td><td>{{.RawOffsetReads}}</td></tr>
		<tr><td class="k">full-decode reads</td><td>{{.FullDecodeReads}}</td></tr>
		<tr><td class="k">raw-offset ratio</td><td>{{.RawOffsetRatio}}</td></tr>
		<tr><td class="k">heap alloc</td><td>{{.AllocBytes}}</td></tr>
		<tr><td class="k">sys bytes</td><td>{{.SysBytes}}</td></tr>
		<tr><td class="k">num GC</td><td>{{.NumGC}}</td></tr>
		<tr><td class="k">log lines</td><td>{{.RingBufferSize}}</td></tr>
	</table>

	<h2>log</h2>
	<pre>{{range .Logs}}{{.}}
{{end}}</pre>
</body>
</html>
`
