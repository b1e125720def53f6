package httpapi

// indexHTML is a minimal built-in page: a ticker form plus the rendered
// charts and the stats table from /api/report.
var indexHTML = []byte(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>folio</title>
<style>
body { font-family: sans-serif; max-width: 1040px; margin: 2em auto; color: #222; }
img { max-width: 100%; margin-bottom: 1.5em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
.warn { color: #a60; }
.err { color: #c00; }
</style>
</head>
<body>
<h1>folio</h1>
<form id="f">
<input id="tickers" size="60" placeholder="tickers, comma separated (empty = defaults)">
<label><input type="checkbox" id="rebalance"> rebalance</label>
<button>Run</button>
</form>
<div id="notes"></div>
<div id="charts"></div>
<h2>Per-ticker stats</h2>
<table id="stats"><thead><tr>
<th>Ticker</th><th>Days</th><th>CumRet</th><th>AnnVol</th><th>Sharpe</th><th>MaxDD</th>
</tr></thead><tbody></tbody></table>
<h2>Portfolios</h2>
<table id="pf"><thead><tr>
<th>Portfolio</th><th>CumRet</th><th>AnnVol</th><th>Sharpe</th><th>MaxDD</th>
</tr></thead><tbody></tbody></table>
<script>
const pct = x => (100 * x).toFixed(2) + '%';
async function run(ev) {
  if (ev) ev.preventDefault();
  const q = new URLSearchParams();
  const t = document.getElementById('tickers').value.trim();
  if (t) q.set('tickers', t);
  if (document.getElementById('rebalance').checked) q.set('rebalance', 'true');
  const qs = q.toString() ? '?' + q.toString() : '';

  const notes = document.getElementById('notes');
  notes.textContent = 'loading...';
  const resp = await fetch('/api/report' + qs);
  const data = await resp.json();
  if (!resp.ok) { notes.innerHTML = '<p class="err">' + data.error + '</p>'; return; }

  let html = '';
  for (const w of data.warnings || []) html += '<p class="warn">' + w + '</p>';
  if (data.optimizer_error) html += '<p class="warn">optimizer: ' + data.optimizer_error + '</p>';
  notes.innerHTML = html;

  const kinds = ['price', 'cumreturn', 'portfolio'];
  if (data.weight_path && data.weight_path.length) kinds.push('weights');
  document.getElementById('charts').innerHTML = kinds
    .map(k => '<img src="/api/report/chart/' + k + qs + '">').join('');

  document.querySelector('#stats tbody').innerHTML = data.ticker_stats.map(ts =>
    '<tr><td>' + ts.ticker + '</td><td>' + ts.stats.n_days + '</td><td>' +
    pct(ts.stats.cum_return) + '</td><td>' + pct(ts.stats.ann_volatility) + '</td><td>' +
    ts.stats.sharpe_ratio.toFixed(2) + '</td><td>' + pct(ts.stats.max_drawdown) + '</td></tr>'
  ).join('');

  document.querySelector('#pf tbody').innerHTML = data.portfolios.map(p =>
    '<tr><td>' + p.name + '</td><td>' + pct(p.stats.cum_return) + '</td><td>' +
    pct(p.stats.ann_volatility) + '</td><td>' + p.stats.sharpe_ratio.toFixed(2) +
    '</td><td>' + pct(p.stats.max_drawdown) + '</td></tr>'
  ).join('');
}
document.getElementById('f').addEventListener('submit', run);
run();
</script>
</body>
</html>
`)
