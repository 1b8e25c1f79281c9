package mockdoc

import (
	"html/template"
	"strings"
)

var T = template.Must(template.New("t").Funcs(helpers).Parse(strings.Join([]string{
	page_root,
	summary_table,
	failure_list,
	exchange_article,
	exchange_message,
}, "")))

var helpers = template.FuncMap{
	"lower": strings.ToLower,
	"status_class": func(code int) string {
		switch {
		case code >= 500:
			return "status-5xx"
		case code >= 400:
			return "status-4xx"
		case code >= 300:
			return "status-3xx"
		}
		return "status-2xx"
	},
}

////////////////////////////////////////////////////////////////////////////////
// Page
////////////////////////////////////////////////////////////////////////////////

var page_root = `
<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="UTF-8">
		<title>{{ .Title }}</title>
		<style>{{ .CSS }}</style>
	</head>
	<body>
		<h1 class="transcript-title">{{ .Title }}</h1>
		{{ template "summary_table" .Summary }}
		{{- with .Failures }}
		{{ template "failure_list" . }}
		{{- end }}
		<main class="transcript-exchanges">
		{{ range .Exchanges -}}
		{{ template "exchange_article" . }}
		{{ end -}}
		</main>
	</body>
</html>
` //`

var summary_table = `{{ define "summary_table" -}}
<table class="summary">
	<tr><th>Requests</th><td>{{ .Total }}</td></tr>
	<tr><th>Fulfilled</th><td>{{ .Fulfilled }}</td></tr>
	<tr><th>Passthrough</th><td>{{ .Passthrough }}</td></tr>
	<tr><th>Aborted</th><td>{{ .Aborted }}</td></tr>
	<tr><th>Failed</th><td>{{ .Failed }}</td></tr>
</table>
{{ end -}}
` //`

var failure_list = `{{ define "failure_list" -}}
<section class="failures">
	<h2>Failures</h2>
	<ol>
		{{ range . -}}
		<li><pre class="failure">{{ . }}</pre></li>
		{{ end -}}
	</ol>
</section>
{{ end -}}
` //`

////////////////////////////////////////////////////////////////////////////////
// Exchange
////////////////////////////////////////////////////////////////////////////////

var exchange_article = `{{ define "exchange_article" -}}
<article id="{{ .ID }}" class="exchange exchange-{{ .Action }}{{ if .Err }} exchange-failed{{ end }}">
	<header class="exchange-header">
		<code>
			<span class="method-{{ lower .Method }}">{{ .Method }} </span>
			<span class="url">{{ .URL }}</span>
		</code>
		<span class="action">{{ .Action }}{{ with .Reason }}: {{ . }}{{ end }}</span>
		<time>{{ .Time }}</time>
	</header>
	{{- with .Pattern }}
	<p class="pattern">Route: <code>{{ . }}</code></p>
	{{- end }}
	{{- with .Fallbacks }}
	<p class="fallbacks">Fell back: {{ range $i, $p := . }}{{ if $i }}, {{ end }}<code>{{ $p }}</code>{{ end }}</p>
	{{- end }}
	{{- with .Err }}
	<pre class="failure">{{ . }}</pre>
	{{- end }}
	{{ template "exchange_message" .Request }}
	{{- with .Response }}
	{{ template "exchange_message" . }}
	{{- end }}
</article>
{{ end -}}
` //`

var exchange_message = `{{ define "exchange_message" -}}
<section class="{{ if .Status }}response{{ else }}request{{ end }}">
	{{- if .Status }}
	<h3>Response: <code class="status {{ status_class .Status }}">{{ .Status }}</code></h3>
	{{- else }}
	<h3>Request</h3>
	{{- end }}
	{{- with .Header }}
	<ul class="header-list">
		{{ range . -}}
		<li><code class="header-key">{{ .Key }}: </code><code class="header-value">{{ .Value }}</code></li>
		{{ end -}}
	</ul>
	{{- end }}
	{{- if .Code }}
	<pre class="chroma code-block" data-lang="{{ .Lang }}">{{ .Code }}</pre>
	{{- end }}
</section>
{{ end -}}
` //`
