package main

// Window abstracts the native webview hosting the game. The webview_go
// window satisfies it directly.
type Window interface {
	Init(js string)
	Bind(name string, f interface{}) error
	Navigate(url string)
	Eval(js string)
	Dispatch(f func())
	Run()
	Terminate()
	Destroy()
}
