package templating

import (
	"bytes"
	"embed"
	"html/template"
	"sync"
)

//go:embed templates/*.html
var files embed.FS

type templates struct {
	lock   sync.Mutex
	cached map[string]*template.Template
}

var instance *templates
var singletonLock = &sync.Once{}

func getInstance() *templates {
	if instance == nil {
		singletonLock.Do(func() {
			instance = &templates{
				cached: make(map[string]*template.Template),
			}
		})
	}
	return instance
}

// GetTemplate returns the named page combined with the shared layout.
func GetTemplate(name string) (*template.Template, error) {
	i := getInstance()
	i.lock.Lock()
	defer i.lock.Unlock()
	if v, ok := i.cached[name]; ok {
		return v, nil
	}

	t, err := template.New(name).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
	if err != nil {
		return nil, err
	}

	i.cached[name] = t
	return t, nil
}

// Render executes the named page into a string.
func Render(name string, model interface{}) (string, error) {
	t, err := GetTemplate(name)
	if err != nil {
		return "", err
	}
	buf := &bytes.Buffer{}
	if err = t.ExecuteTemplate(buf, "layout", model); err != nil {
		return "", err
	}
	return buf.String(), nil
}
