package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env-default:"local" env-required:"true"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port   string `yaml:"port" env-default:"8080"`
		ApiKey string `yaml:"api_key" env:"API_KEY" env-default:""`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"localhost"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env-default:"printflow"`
	} `yaml:"mongo"`
	Telegram struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BotName string `yaml:"bot_name" env-default:""`
		ApiKey  string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId string `yaml:"admin_id" env-default:""`
	} `yaml:"telegram"`
	Printify struct {
		ApiUrl string `yaml:"api_url" env-default:"https://api.printify.com/v1"`
		Token  string `yaml:"token" env:"PRINTIFY_TOKEN" env-default:""`
		ShopId string `yaml:"shop_id" env-default:""`
	} `yaml:"printify"`
	Gelato struct {
		ApiUrl string `yaml:"api_url" env-default:"https://order.gelatoapis.com"`
		ApiKey string `yaml:"api_key" env:"GELATO_API_KEY" env-default:""`
	} `yaml:"gelato"`
	Qikink struct {
		ApiUrl   string `yaml:"api_url" env-default:"https://sandbox.qikink.com/api"`
		ClientId string `yaml:"client_id" env-default:""`
		Token    string `yaml:"token" env:"QIKINK_TOKEN" env-default:""`
	} `yaml:"qikink"`
	Storage struct {
		Bucket        string `yaml:"bucket" env-default:""`
		PublicBaseUrl string `yaml:"public_base_url" env-default:""`
		Credentials   string `yaml:"credentials" env:"GOOGLE_APPLICATION_CREDENTIALS" env-default:""`
	} `yaml:"storage"`
	Render struct {
		FontPath string `yaml:"font_path" env-default:"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"`
	} `yaml:"render"`
	Pdf struct {
		RenderUrl string `yaml:"render_url" env-default:""`
		Token     string `yaml:"token" env:"PDF_RENDER_TOKEN" env-default:""`
	} `yaml:"pdf"`
	Mail struct {
		Host     string `yaml:"host" env-default:""`
		Port     int    `yaml:"port" env-default:"587"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env:"MAIL_PASSWORD" env-default:""`
		From     string `yaml:"from" env-default:""`
	} `yaml:"mail"`
	Invoice struct {
		DomesticCountry string `yaml:"domestic_country" env-default:"IN"`
		SellerName      string `yaml:"seller_name" env-default:""`
		SellerAddress   string `yaml:"seller_address" env-default:""`
		SellerTaxId     string `yaml:"seller_tax_id" env-default:""`
	} `yaml:"invoice"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
