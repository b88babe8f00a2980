package dashboard

import "net/http"

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Dashboard OKRs</title>
<style>
  :root {
    --bg: #0d1117;
    --surface: #161b22;
    --border: #30363d;
    --text: #e6edf3;
    --text-dim: #8b949e;
    --accent: #8149f2;
  }
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Helvetica, Arial, sans-serif;
    background: var(--bg);
    color: var(--text);
    font-size: 14px;
    line-height: 1.5;
    padding: 16px;
  }
  header {
    display: flex;
    align-items: center;
    justify-content: space-between;
    margin-bottom: 16px;
    padding-bottom: 12px;
    border-bottom: 1px solid var(--border);
  }
  header h1 { font-size: 20px; font-weight: 600; }
  .meta { font-size: 12px; color: var(--text-dim); }
  nav { display: flex; gap: 8px; flex-wrap: wrap; margin-bottom: 16px; }
  nav button {
    background: var(--surface); color: var(--text); border: 1px solid var(--border);
    border-radius: 6px; padding: 6px 12px; cursor: pointer;
  }
  nav button.active { border-color: var(--accent); color: var(--accent); }
  .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 12px; }
  .card { background: var(--surface); border: 1px solid var(--border); border-radius: 8px; padding: 12px; }
  .card h3 { font-size: 14px; margin-bottom: 4px; }
  .card .nums { color: var(--text-dim); font-size: 12px; }
  .card .err { color: #FF0000; font-size: 12px; }
  .bar { height: 8px; background: var(--border); border-radius: 4px; margin: 8px 0; overflow: hidden; }
  .bar > div { height: 100%; }
  h2 { font-size: 16px; margin: 16px 0 8px; }
  form.update { display: flex; gap: 4px; margin-top: 8px; }
  form.update input { flex: 1; min-width: 0; background: var(--bg); color: var(--text); border: 1px solid var(--border); border-radius: 4px; padding: 2px 6px; }
  form.update button { background: var(--accent); color: #fff; border: 0; border-radius: 4px; padding: 2px 8px; cursor: pointer; }
  #actor { background: var(--bg); color: var(--text); border: 1px solid var(--border); border-radius: 4px; padding: 4px 8px; width: 260px; }
  #status { margin: 8px 0; color: var(--text-dim); min-height: 20px; }
</style>
</head>
<body>
<header>
  <h1 id="title">Dashboard OKRs</h1>
  <div class="meta">
    <input id="actor" type="email" placeholder="seu.email@empresa.com.br">
    <span id="updated"></span>
  </div>
</header>
<nav id="teams"></nav>
<div id="status"></div>
<main id="content"></main>
<script>
const state = { team: null, revision: 0 };
const $ = (id) => document.getElementById(id);
const esc = (s) => String(s ?? '').replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));

async function getJSON(url, opts) {
  const res = await fetch(url, opts);
  const body = await res.json();
  if (!res.ok && res.status !== 207) throw new Error(body.error || res.statusText);
  return body;
}

function bar(ratio, color) {
  const w = Math.max(0, Math.min(100, ratio));
  return '<div class="bar"><div style="width:' + w + '%;background:' + color + '"></div></div>';
}

async function loadTeams() {
  const data = await getJSON('/api/teams');
  $('title').textContent = data.title;
  const nav = $('teams');
  nav.innerHTML = '';
  for (const t of [null, ...data.teams]) {
    const b = document.createElement('button');
    b.textContent = t ?? 'Visão geral';
    b.onclick = () => { state.team = t; render(); };
    nav.appendChild(b);
  }
}

async function render() {
  for (const b of $('teams').children) {
    b.classList.toggle('active', b.textContent === (state.team ?? 'Visão geral'));
  }
  $('status').textContent = 'Carregando...';
  try {
    if (state.team) await renderTeam(state.team); else await renderOverview();
    $('status').textContent = '';
  } catch (e) {
    $('content').innerHTML = '';
    $('status').textContent = e.message;
  }
}

async function renderOverview() {
  const ov = await getJSON('/api/overview');
  let html = '<h2>' + esc(ov.title) + ' &middot; ' + ov.progress.toFixed(1) + '%</h2><div class="grid">';
  for (const t of ov.teams) {
    html += '<div class="card"><h3>' + esc(t.team) + '</h3>';
    if (t.error) {
      html += '<div class="err">' + esc(t.error) + '</div></div>';
      continue;
    }
    html += bar(t.progress, t.color) + '<div class="nums">' + t.progress.toFixed(1) + '% &middot; ' + t.kr_count + ' KRs</div></div>';
  }
  $('content').innerHTML = html + '</div>';
  $('updated').textContent = '';
}

async function renderTeam(team) {
  const b = await getJSON('/api/teams/' + encodeURIComponent(team));
  $('updated').textContent = b.last_updated ? 'Última atualização: ' + b.last_updated : '';
  let html = '<h2>' + esc(b.team) + ' &middot; ' + b.progress.toFixed(1) + '%</h2>';
  for (const sec of b.objectives || []) {
    const title = sec.number ? 'Objetivo ' + sec.number + ': ' + esc(sec.objective) : 'Sem objetivo';
    const p = sec.progress ? ' &middot; ' + sec.progress.progress.toFixed(1) + '%' : '';
    html += '<h2>' + title + p + '</h2><div class="grid">';
    for (const c of sec.cards || []) {
      html += '<div class="card"><h3>KR ' + esc(c.id) + ' &middot; ' + esc(c.description) + '</h3>';
      if (c.error) {
        html += '<div class="err">' + esc(c.error) + '</div>';
      } else {
        html += bar(c.progress.ratio, c.display.color) +
          '<div class="nums">' + esc(c.display.current) + ' / ' + esc(c.display.target) +
          ' &middot; ' + esc(c.display.ratio) + ' &middot; faltam ' + esc(c.display.remaining) + '</div>';
      }
      html += '<form class="update" data-kr="' + esc(c.id) + '"><input name="value" placeholder="novo valor">' +
        '<button>Salvar</button></form></div>';
    }
    html += '</div>';
  }
  $('content').innerHTML = html;
  for (const f of document.querySelectorAll('form.update')) {
    f.onsubmit = (ev) => { ev.preventDefault(); update(team, f.dataset.kr, f.value.value); };
  }
}

async function update(team, kr, value) {
  const actor = $('actor').value.trim();
  localStorage.setItem('okr-actor', actor);
  try {
    const res = await getJSON('/api/teams/' + encodeURIComponent(team) + '/krs/' + encodeURIComponent(kr), {
      method: 'POST',
      headers: { 'Content-Type': 'application/json', 'X-Actor-Email': actor },
      body: JSON.stringify({ value: value, note: 'dashboard' }),
    });
    $('status').textContent = 'KR ' + res.kr_id + ': ' + res.status;
    await render();
  } catch (e) {
    $('status').textContent = e.message;
  }
}

async function poll() {
  try {
    const r = await getJSON('/api/revision');
    if (state.revision && r.revision !== state.revision) render();
    state.revision = r.revision;
  } catch (e) {}
}

$('actor').value = localStorage.getItem('okr-actor') || '';
loadTeams().then(render);
setInterval(poll, 5000);
</script>
</body>
</html>
`
