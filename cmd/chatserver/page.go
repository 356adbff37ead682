package main

import "net/http"

// Minimal pages on the plain request/response side so both branches of the
// protocol dispatcher are exercised. Anything beyond this belongs to a real
// frontend, which is not this server's business.

const indexPage = `<!DOCTYPE html>
<html>
<head><title>chatserver</title></head>
<body>
<label>Room: <input id="room" value="lobby"></label>
<button onclick="location.href='/chat/'+document.getElementById('room').value">Join</button>
</body>
</html>`

const roomPage = `<!DOCTYPE html>
<html>
<head><title>chatserver</title></head>
<body>
<ul id="log"></ul>
<input id="msg" autofocus>
<script>
const room = location.pathname.split('/').pop();
const proto = location.protocol === 'https:' ? 'wss' : 'ws';
const sock = new WebSocket(proto + '://' + location.host + '/ws/chat/' + room);
sock.onmessage = (e) => {
  const li = document.createElement('li');
  li.textContent = JSON.parse(e.data).message;
  document.getElementById('log').appendChild(li);
};
document.getElementById('msg').addEventListener('keydown', (e) => {
  if (e.key === 'Enter' && e.target.value) {
    sock.send(JSON.stringify({message: e.target.value}));
    e.target.value = '';
  }
});
</script>
</body>
</html>`

func pageMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/chat/{room}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(roomPage))
	})
	return mux
}
