package ns

import (
	"encoding/json"
	"os"

	"github.com/youtube/vitess/go/ioutil2"
)

const CONFIG_FILENAME = "config.json"

type Config struct {
	//	Bluetooth adapter under /sys/kernel/debug/bluetooth
	Adapter string `json:"adapter"`
	//	Advertising interval, milliseconds
	IntervalMillis uint64 `json:"interval_ms"`
	//	Name broadcast in the advertisement
	LocalName string `json:"local_name"`
}

func DefaultConfig() Config {
	return Config{
		Adapter:        "hci0",
		IntervalMillis: DEFAULT_INTERVAL_MILLIS,
		LocalName:      "ns_server",
	}
}

func (c Config) Interval() Interval {
	return Interval(c.IntervalMillis)
}

func (c Config) Bounds() AdvertisingBounds {
	return BoundsForAdapter(c.Adapter)
}

// LoadConfig reads the persisted config, falling back to defaults when none
// has been saved yet.
func LoadConfig() (config Config, err error) {
	path, err := NsDirFile(CONFIG_FILENAME)
	if err != nil {
		return
	}
	configJson, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		config = DefaultConfig()
		err = nil
		return
	}
	if err != nil {
		return
	}
	config = DefaultConfig()
	err = json.Unmarshal(configJson, &config)
	return
}

func SaveConfig(config Config) (err error) {
	path, err := NsDirFile(CONFIG_FILENAME)
	if err != nil {
		return
	}
	configJson, err := json.Marshal(config)
	if err != nil {
		return
	}
	//	atomic so a crashed write cannot leave a half-written config
	err = ioutil2.WriteFileAtomic(path, configJson, os.FileMode(0600))
	return
}
