package engine

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		path   string
		plugin bool
		name   string
	}{
		{"/srv/bot/data/plugins/my_plugin/handler.py", true, "my_plugin"},
		{"data/plugins/weather/main.py", true, "weather"},
		{"/opt/astrbot/builtin_stars/greeter/star.py", true, "greeter"},
		{"/srv/bot/data/plugins", true, "unknown"},
		{"/srv/bot/astrbot/core/loop.py", false, ""},
		{"main.py", false, ""},
	}
	for _, c := range cases {
		got := Classify(c.path)
		if got.Plugin != c.plugin || got.Name != c.name {
			t.Errorf("Classify(%q) = %+v, want plugin=%v name=%q",
				c.path, got, c.plugin, c.name)
		}
	}
}
