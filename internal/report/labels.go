/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package report

import "strings"

// Labels holds every fixed string of a report in one language.
type Labels struct {
	Title      string
	Computer   string
	Time       string
	Network    string
	Hostname   string
	LocalIP    string
	ExternalIP string
	CPU        string
	Cores      string
	Load       string
	Memory     string
	Total      string
	Used       string
	Available  string
	Disks      string
	Free       string
	TopCPU     string
	TopMemory  string
	Units      [6]string // B through PB
}

// English is the default label set.
var English = Labels{
	Title:      "System Status Report",
	Computer:   "Computer",
	Time:       "Time",
	Network:    "Network",
	Hostname:   "Hostname",
	LocalIP:    "Local IP",
	ExternalIP: "External IP",
	CPU:        "Processor",
	Cores:      "Cores",
	Load:       "Load",
	Memory:     "Memory",
	Total:      "Total",
	Used:       "Used",
	Available:  "Available",
	Disks:      "Disks",
	Free:       "Free",
	TopCPU:     "Top processes (CPU)",
	TopMemory:  "Top processes (Memory)",
	Units:      [6]string{"B", "KB", "MB", "GB", "TB", "PB"},
}

// Russian matches the wording of the reports operators already receive.
var Russian = Labels{
	Title:      "Отчет о состоянии системы",
	Computer:   "Компьютер",
	Time:       "Время",
	Network:    "Сеть",
	Hostname:   "Имя хоста",
	LocalIP:    "Локальный IP",
	ExternalIP: "Внешний IP",
	CPU:        "Процессор",
	Cores:      "Ядер",
	Load:       "Загрузка",
	Memory:     "Память",
	Total:      "Всего",
	Used:       "Использовано",
	Available:  "Доступно",
	Disks:      "Диски",
	Free:       "Свободно",
	TopCPU:     "Топ процессы (CPU)",
	TopMemory:  "Топ процессы (Память)",
	Units:      [6]string{"Б", "КБ", "МБ", "ГБ", "ТБ", "ПБ"},
}

// LabelsFor returns the label set for a language code, English when unknown.
func LabelsFor(language string) Labels {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "ru":
		return Russian
	default:
		return English
	}
}
