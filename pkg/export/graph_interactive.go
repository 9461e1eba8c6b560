package export

import (
	"fmt"
	"html"
	"io"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// CDN scripts for the browser renderer
const (
	cytoscapeURL      = "https://unpkg.com/cytoscape@3.30.2/dist/cytoscape.min.js"
	dagreURL          = "https://unpkg.com/dagre@0.8.5/dist/dagre.min.js"
	cytoscapeDagreURL = "https://unpkg.com/cytoscape-dagre@2.5.0/cytoscape-dagre.js"
)

// CyElement is one cytoscape element ({data: {...}})
type CyElement struct {
	Data CyData `json:"data"`
}

// CyData carries node fields (id, label) or edge fields (id, source, target)
type CyData struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// CytoscapeElements flattens nodes then edges into cytoscape's element list
func CytoscapeElements(el layout.Elements) []CyElement {
	out := make([]CyElement, 0, len(el.Nodes)+len(el.Edges))
	for _, n := range el.Nodes {
		out = append(out, CyElement{Data: CyData{ID: n.ID, Label: n.Label}})
	}
	for _, e := range el.Edges {
		out = append(out, CyElement{Data: CyData{ID: e.ID, Source: e.Source, Target: e.Target}})
	}
	return out
}

// HTMLOptions switches the page between a static snapshot and the live
// editor served by the preview server.
type HTMLOptions struct {
	Live    bool
	APIBase string // Defaults to "/api" in live mode
}

// pageData is embedded in the page as JSON
type pageData struct {
	Elements []CyElement               `json:"elements"`
	Info     map[string]model.NodeInfo `json:"info"`
	Selected string                    `json:"selected"`
	TreeSize int                       `json:"tree_size"`
	Layout   layout.Options            `json:"layout"`
	Labels   editor.Catalog            `json:"labels"`
	Live     bool                      `json:"live"`
	APIBase  string                    `json:"api_base"`
}

func elementsOf(doc *Document) layout.Elements {
	var el layout.Elements
	for _, n := range doc.Diagram.Nodes {
		el.Nodes = append(el.Nodes, n.ElementNode)
	}
	for _, e := range doc.Diagram.Edges {
		el.Edges = append(el.Edges, e.ElementEdge)
	}
	return el
}

// WriteHTML writes a self-contained page that renders the tree with
// cytoscape + dagre (rankDir TB) and shows a node's info on tap.
func WriteHTML(w io.Writer, doc *Document, opts HTMLOptions) error {
	if opts.Live && opts.APIBase == "" {
		opts.APIBase = "/api"
	}
	data := pageData{
		Elements: CytoscapeElements(elementsOf(doc)),
		Info:     doc.Info,
		Selected: doc.Selected,
		TreeSize: doc.TreeSize(),
		Layout:   doc.Diagram.Options,
		Labels:   doc.Catalog,
		Live:     opts.Live,
		APIBase:  opts.APIBase,
	}
	if data.Info == nil {
		data.Info = map[string]model.NodeInfo{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal page data: %w", err)
	}

	title := doc.Title
	if title == "" {
		title = "Tree Viewer"
	}
	_, err = io.WriteString(w, generatePageHTML(html.EscapeString(title), string(dataJSON), doc.Catalog))
	return err
}

func generatePageHTML(title, dataJSON string, c editor.Catalog) string {
	e := html.EscapeString
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%[1]s | tv</title>
    <style>
        :root {
            --bg: #fafafa;
            --panel: #ffffff;
            --fg: #212121;
            --muted: #757575;
            --accent: #1976d2;
            --danger: #d32f2f;
            --border: #e0e0e0;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: system-ui, sans-serif;
            background: var(--bg);
            color: var(--fg);
            height: 100vh;
            display: flex;
            flex-direction: column;
        }
        header {
            padding: 0.6rem 1rem;
            border-bottom: 2px solid var(--accent);
            display: flex; justify-content: space-between; align-items: center;
        }
        h1 { font-size: 1.1rem; font-weight: 600; }
        .count { font-size: 0.8rem; color: var(--muted); }
        main { flex: 1; display: flex; overflow: hidden; }
        #cy { flex: 1; background: var(--panel); }
        #sidebar {
            width: 300px; padding: 1rem; overflow-y: auto;
            border-left: 1px solid var(--border);
            display: flex; flex-direction: column; gap: 1rem;
        }
        .panel { background: var(--panel); border: 1px solid var(--border); border-radius: 8px; padding: 0.75rem; }
        .panel-title { font-size: 0.7rem; font-weight: 600; color: var(--accent); text-transform: uppercase; margin-bottom: 0.5rem; }
        form { display: flex; flex-direction: column; gap: 0.4rem; }
        input, select, button { font: inherit; font-size: 0.8rem; padding: 0.35rem 0.5rem; border: 1px solid var(--border); border-radius: 6px; }
        button { background: var(--accent); color: #fff; border: none; cursor: pointer; }
        button.secondary { background: var(--muted); }
        #message { color: var(--danger); font-size: 0.8rem; min-height: 1rem; }
        dl { display: grid; grid-template-columns: auto 1fr; gap: 0.25rem 0.6rem; font-size: 0.8rem; }
        dt { color: var(--muted); }
        .live-only { display: none; }
        body.live .live-only { display: block; }
        #no-selection { color: var(--muted); font-size: 0.8rem; }
    </style>
</head>
<body>
    <header>
        <h1>%[1]s</h1>
        <div class="count">%[3]s: <span id="tree-size">0</span></div>
    </header>
    <main>
        <div id="cy"></div>
        <div id="sidebar">
            <div class="panel live-only">
                <form id="root-form">
                    <input id="root-label" placeholder="%[4]s">
                    <button type="submit">+ %[4]s</button>
                </form>
            </div>
            <div class="panel live-only">
                <form id="node-form">
                    <input id="node-label" placeholder="%[5]s">
                    <select id="node-parent"></select>
                    <button type="submit">+ %[5]s</button>
                </form>
            </div>
            <div class="panel live-only">
                <button class="secondary" id="reset-btn" type="button">Reset</button>
                <div id="message"></div>
            </div>
            <div class="panel">
                <div class="panel-title">%[5]s</div>
                <div id="no-selection">-</div>
                <dl id="node-info" hidden>
                    <dt>%[5]s</dt><dd id="i-label"></dd>
                    <dt>%[6]s</dt><dd id="i-parent"></dd>
                    <dt>%[7]s</dt><dd id="i-children"></dd>
                    <dt>%[8]s</dt><dd id="i-siblings"></dd>
                    <dt>%[9]s</dt><dd id="i-level"></dd>
                    <dt>%[10]s</dt><dd id="i-subtree"></dd>
                </dl>
            </div>
        </div>
    </main>
    <script src="%[11]s"></script>
    <script src="%[12]s"></script>
    <script src="%[13]s"></script>
    <script>
    (function() {
        const DATA = %[2]s;
        const L = DATA.labels;
        if (DATA.live) document.body.classList.add('live');

        const cy = cytoscape({
            container: document.getElementById('cy'),
            elements: DATA.elements,
            style: [
                { selector: 'node', style: {
                    'background-color': '#1976d2', 'label': 'data(label)', 'color': '#ffffff',
                    'text-valign': 'center', 'text-halign': 'center', 'font-size': '12px',
                    'width': DATA.layout.node_width + 'px', 'height': DATA.layout.node_height + 'px' } },
                { selector: 'edge', style: {
                    'width': 2, 'line-color': '#999', 'target-arrow-color': '#999',
                    'target-arrow-shape': 'triangle', 'curve-style': 'bezier' } },
                { selector: 'node:selected', style: { 'background-color': '#d32f2f' } }
            ]
        });

        function runLayout() {
            cy.layout({
                name: 'dagre',
                rankDir: DATA.layout.rank_dir || 'TB',
                rankSep: DATA.layout.rank_sep,
                nodeSep: DATA.layout.node_sep
            }).run();
        }

        function orNone(list) { return list && list.length ? list.join(', ') : L.None; }

        function showInfo(info) {
            const dl = document.getElementById('node-info');
            const empty = document.getElementById('no-selection');
            if (!info) { dl.hidden = true; empty.hidden = false; return; }
            document.getElementById('i-label').textContent = info.label;
            document.getElementById('i-parent').textContent = info.parent_label === null ? L.None : info.parent_label;
            document.getElementById('i-children').textContent = orNone(info.children_labels);
            document.getElementById('i-siblings').textContent = orNone(info.siblings_labels);
            document.getElementById('i-level').textContent = info.level;
            document.getElementById('i-subtree').textContent = info.subtree_size;
            dl.hidden = false; empty.hidden = true;
        }

        function setSize(n) { document.getElementById('tree-size').textContent = n; }
        function setMessage(m) { const el = document.getElementById('message'); if (el) el.textContent = m || ''; }

        setSize(DATA.tree_size);
        runLayout();
        if (DATA.selected) {
            cy.getElementById(DATA.selected).select();
            showInfo(DATA.info[DATA.selected]);
        }

        cy.on('tap', 'node', function(evt) {
            const id = evt.target.id();
            if (!DATA.live) { showInfo(DATA.info[id]); return; }
            post('/select', { id: id }).then(function(body) { showInfo(body.info); });
        });

        if (!DATA.live) return;

        function post(path, payload) {
            return fetch(DATA.api_base + path, {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(payload || {})
            }).then(function(r) {
                return r.json().then(function(body) {
                    setMessage(r.ok ? '' : body.error);
                    return body;
                });
            });
        }

        function fillParents(nodes, keep) {
            const sel = document.getElementById('node-parent');
            sel.innerHTML = '';
            const blank = document.createElement('option');
            blank.value = ''; blank.textContent = '-';
            sel.appendChild(blank);
            nodes.forEach(function(n) {
                const opt = document.createElement('option');
                opt.value = n.id; opt.textContent = n.label + ' (' + n.id + ')';
                sel.appendChild(opt);
            });
            sel.value = keep || '';
        }

        function refresh() {
            return fetch(DATA.api_base + '/tree').then(function(r) { return r.json(); }).then(function(t) {
                cy.elements().remove();
                cy.add(t.elements);
                runLayout();
                setSize(t.tree_size);
                setMessage(t.message);
                fillParents(t.nodes, t.parent_id);
                showInfo(t.info);
            });
        }

        document.getElementById('root-form').addEventListener('submit', function(ev) {
            ev.preventDefault();
            const input = document.getElementById('root-label');
            post('/root', { label: input.value }).then(function(body) { if (!body.error) input.value = ''; });
        });
        document.getElementById('node-form').addEventListener('submit', function(ev) {
            ev.preventDefault();
            const input = document.getElementById('node-label');
            const parent = document.getElementById('node-parent').value;
            post('/nodes', { label: input.value, parent_id: parent }).then(function(body) { if (!body.error) input.value = ''; });
        });
        document.getElementById('reset-btn').addEventListener('click', function() { post('/reset'); });

        const es = new EventSource(DATA.api_base + '/events');
        es.addEventListener('rebuild', refresh);
        es.addEventListener('clear', refresh);
        refresh();
    })();
    </script>
</body>
</html>
`, title, dataJSON, e(c.TreeSize), e(rootHeading(c)), e(c.Node), e(c.Parent), e(c.Children),
		e(c.Siblings), e(c.Level), e(c.SubtreeSize), cytoscapeURL, dagreURL, cytoscapeDagreURL)
}

// rootHeading turns the root marker into a form heading, e.g. " (raíz)" -> "raíz"
func rootHeading(c editor.Catalog) string {
	h := c.RootMarker
	for len(h) > 0 && (h[0] == ' ' || h[0] == '(') {
		h = h[1:]
	}
	for len(h) > 0 && h[len(h)-1] == ')' {
		h = h[:len(h)-1]
	}
	if h == "" {
		return "root"
	}
	return h
}
