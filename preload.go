package main

import (
	"encoding/json"
	"fmt"
)

// Names of the host functions bound into every page.
const (
	bindPost      = "__web2view_post"
	bindReady     = "__web2view_ready"
	bindNavigate  = "__web2view_navigate"
	bindInspector = "__web2view_inspector"
)

// Navigation kinds reported by the preload.
const (
	navLink     = "link"
	navWindow   = "window"
	navDocument = "document"
)

// preloadScript returns the script run at the start of every top-level
// document. It must be installed after the bindings so it can take them
// off window. On a document outside the trusted origin, file: and
// about:blank it installs nothing and reports the document to the host.
// Otherwise it relays cross-document messages with their origin, exposes
// web2view.send for the wrapper itself, signals readiness on load, and
// routes link clicks and window.open through the navigation policy.
func preloadScript(trustedOrigin string) string {
	origin, _ := json.Marshal(trustedOrigin)
	names, _ := json.Marshal([]string{bindPost, bindReady, bindNavigate, bindInspector})
	return fmt.Sprintf(preloadTemplate, origin, names)
}

const preloadTemplate = `(function() {
  var trustedOrigin = %s;
  var names = %s;
  var host = {};
  names.forEach(function(name) {
    host[name] = window[name];
    try { delete window[name]; } catch (e) { window[name] = undefined; }
  });
  var post = host.__web2view_post;
  var ready = host.__web2view_ready;
  var navigate = host.__web2view_navigate;
  var inspector = host.__web2view_inspector;

  if (window.web2view || typeof post !== 'function') { return; }

  var trusted = location.protocol === 'file:' ||
    location.href === 'about:blank' ||
    location.origin === trustedOrigin;
  if (!trusted) {
    navigate(location.href, 'document');
    return;
  }

  function selfOrigin() {
    return location.protocol === 'file:' ? 'null' : location.origin;
  }

  window.addEventListener('message', function(event) {
    post(String(event.origin), event.data);
  });

  window.web2view = Object.freeze({
    send: function(data) { post(selfOrigin(), data); }
  });

  window.addEventListener('load', function() { ready(); });

  window.addEventListener('keydown', function(event) {
    var key = (event.key || '').toLowerCase();
    var combo = (event.ctrlKey || event.metaKey) && event.shiftKey && key === 'i';
    if (event.key === 'F12' || combo) {
      event.preventDefault();
      inspector();
    }
  }, true);

  function route(url, kind) {
    navigate(url, kind).then(function(allowed) {
      if (allowed) { location.href = url; }
    });
  }

  document.addEventListener('click', function(event) {
    var link = event.target && event.target.closest ? event.target.closest('a[href]') : null;
    if (!link) { return; }
    var raw = link.getAttribute('href') || '';
    if (raw.charAt(0) === '#' || link.protocol === 'javascript:') { return; }
    event.preventDefault();
    route(link.href, link.target === '_blank' ? 'window' : 'link');
  }, true);

  window.open = function(url) {
    var target = url ? new URL(String(url), location.href).href : 'about:blank';
    route(target, 'window');
    return null;
  };
})();`
