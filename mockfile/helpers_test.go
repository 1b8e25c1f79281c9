package mockfile

import (
	"gopkg.in/yaml.v3"
)

func yaml_unmarshal(data string, v interface{}) error {
	return yaml.Unmarshal([]byte(data), v)
}
